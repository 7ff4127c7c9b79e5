package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lorekeep/lorekeep/internal/retrieval"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backendOverride string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "lorekeep",
	Short: "Lorekeep - document passage retrieval memory",
	Long: `Lorekeep manages the passage memory behind a curriculum-aware dialogue backend.

Passages are stored with their embeddings, scoped by document and optional
NPC identifier, and retrieved by embedding similarity. The memory runs on an
external vector index (MongoDB Atlas or Milvus) or an in-memory mock.

Backend selection and connection parameters come from the environment:
  RAG_DATABASE_SYSTEM  - "mongodb" (default), "milvus" or "mock"
  MONGODB_URI          - MongoDB connection string
  MILVUS_ADDRESS       - Milvus server address`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendOverride, "backend", "", "Override the configured backend (mongodb, milvus, mock)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newStore builds the configured retrieval backend for a CLI invocation.
func newStore(ctx context.Context) (retrieval.Store, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg := retrieval.DefaultConfig()
	if backendOverride != "" {
		cfg.Backend = backendOverride
	}

	store, err := retrieval.SelectStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to select backend: %w", err)
	}

	return store, logger, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
