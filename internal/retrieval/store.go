// Package retrieval implements the passage memory used by the dialogue
// backend: an embedding-similarity store over curriculum passages, scoped by
// document and optional NPC, with interchangeable persistent and in-memory
// backends.
package retrieval

import (
	"context"
	"errors"
	"fmt"
)

// Common errors for retrieval operations
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedBackend = errors.New("unsupported backend")
	ErrConnectionFailed   = errors.New("failed to connect to backend")
)

// Store is the capability contract every retrieval backend satisfies.
//
// Transient persistence failures never surface as errors: PostContext reports
// them as false so callers can choose their own retry policy, and IsReachable
// degrades to false instead of failing. Errors are reserved for caller
// mistakes (ErrInvalidInput).
type Store interface {
	// GetContext returns the passages in documentID whose exact cosine
	// similarity to embedding strictly exceeds the configured threshold.
	// An empty result is not an error. Fails with ErrInvalidInput when the
	// embedding is empty.
	GetContext(ctx context.Context, documentID string, embedding []float32) ([]Context, error)

	// PostContext stores one passage with its embedding and metadata.
	// It returns (true, nil) on success, (false, nil) when the underlying
	// persistence operation fails transiently, and ErrInvalidInput when a
	// required field is empty.
	PostContext(ctx context.Context, text, documentName string, npc int, embedding []float32, documentID string) (bool, error)

	// IsReachable reports backend liveness. It never returns an error and
	// never mutates data; persistent backends may issue a lightweight ping.
	IsReachable(ctx context.Context) bool
}

// validateQuery checks GetContext preconditions.
func validateQuery(embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty query embedding", ErrInvalidInput)
	}
	return nil
}

// validatePassage checks PostContext preconditions.
func validatePassage(text, documentName string, embedding []float32, documentID string) error {
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	if documentName == "" {
		return fmt.Errorf("%w: empty document name", ErrInvalidInput)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrInvalidInput)
	}
	if documentID == "" {
		return fmt.Errorf("%w: empty document id", ErrInvalidInput)
	}
	return nil
}
