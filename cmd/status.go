package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lorekeep/lorekeep/internal/retrieval"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the configured backend is reachable",
	Long: `Check whether the configured retrieval backend answers a liveness probe.

Examples:
  lorekeep status
  lorekeep status --backend milvus`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, logger, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var (
		successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
		errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	)

	cfg := retrieval.DefaultConfig()
	backend := cfg.Backend
	if backendOverride != "" {
		backend = backendOverride
	}

	if store.IsReachable(ctx) {
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ backend %q is reachable", backend)))
		return nil
	}

	return fmt.Errorf("%s backend %q is not reachable", errorStyle.Render("✗"), backend)
}
