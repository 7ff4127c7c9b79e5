package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	putText         string
	putDocumentName string
	putNPC          int
)

var putCmd = &cobra.Command{
	Use:   "put [document-id] [embedding.json]",
	Short: "Store a passage with its embedding",
	Long: `Store one passage in the retrieval memory, with its precomputed embedding.

Examples:
  lorekeep put course-101 passage.json --text "The moon orbits the earth" --name astronomy
  lorekeep put course-101 passage.json --text "..." --name astronomy --npc 3`,
	Args: cobra.ExactArgs(2),
	RunE: runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().StringVar(&putText, "text", "", "Passage text (required)")
	putCmd.Flags().StringVar(&putDocumentName, "name", "", "Document name (required)")
	putCmd.Flags().IntVar(&putNPC, "npc", 0, "NPC identifier the passage belongs to")
	putCmd.MarkFlagRequired("text")
	putCmd.MarkFlagRequired("name")
}

func runPut(cmd *cobra.Command, args []string) error {
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

	ok, err := store.PostContext(ctx, putText, putDocumentName, putNPC, embedding, documentID)
	if err != nil {
		return fmt.Errorf("failed to store passage: %w", err)
	}

	var (
		successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
		warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	)

	if !ok {
		fmt.Println(warnStyle.Render("✗ passage not stored (backend write failed, retry later)"))
		return nil
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ stored passage in %s", documentID)))
	return nil
}
