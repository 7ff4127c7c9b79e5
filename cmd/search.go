package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [document-id] [embedding.json]",
	Short: "Retrieve the passages most similar to a query embedding",
	Long: `Retrieve the stored passages in a document scope whose similarity to the
query embedding exceeds the configured threshold.

The embedding file holds a JSON array of numbers, produced by whatever
embedding provider the calling application uses. Lorekeep never computes
embeddings itself.

Examples:
  lorekeep search course-101 query.json
  lorekeep search course-101 query.json --backend mock --verbose`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	embeddingPath := args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	embedding, err := loadEmbedding(embeddingPath)
	if err != nil {
		return err
	}

	store, logger, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	contexts, err := store.GetContext(ctx, documentID, embedding)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	var (
		headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF")).Bold(true)
		nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Italic(true)
		textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E9E9F4"))
		mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
	)

	if len(contexts) == 0 {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("No passages in %q matched the query", documentID)))
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Context (%d passages):", len(contexts))))
	for _, c := range contexts {
		fmt.Println()
		fmt.Println(nameStyle.Render(fmt.Sprintf("%s (NPC %d)", c.DocumentName, c.NPC)))
		fmt.Println(textStyle.Render(c.Text))
	}

	return nil
}

// loadEmbedding reads a JSON number array from disk.
func loadEmbedding(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding file: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("failed to parse embedding file %s: %w", path, err)
	}

	return embedding, nil
}
