package retrieval

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InMemoryStore is the brute-force fallback backend: a process-lifetime
// slice of passages scanned linearly on every query. It applies the same
// exact similarity filter as the persistent backends, so results match them
// for correctness; only recall guarantees and performance differ (a full
// scan has no ANN approximation error).
//
// The selector hands out one shared instance for the whole process, so every
// consumer observes the same collection. Construct independent instances
// only for isolated tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	passages []StoredPassage

	params SearchParams
	logger *zap.Logger
}

// NewInMemoryStore creates an empty in-memory store with the given search
// parameters. A nil logger disables logging.
func NewInMemoryStore(params SearchParams, logger *zap.Logger) *InMemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryStore{
		params: params,
		logger: logger,
	}
}

// GetContext scans the whole collection and filters by document scope and
// exact similarity.
func (s *InMemoryStore) GetContext(_ context.Context, documentID string, embedding []float32) ([]Context, error) {
	if err := validateQuery(embedding); err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := make([]StoredPassage, len(s.passages))
	copy(candidates, s.passages)
	s.mu.RUnlock()

	return filterCandidates(candidates, documentID, embedding, s.params), nil
}

// PostContext appends a passage to the shared collection. There is no I/O to
// fail, so it always succeeds once the preconditions pass. Appends are
// serialized so concurrent writers never lose records.
func (s *InMemoryStore) PostContext(_ context.Context, text, documentName string, npc int, embedding []float32, documentID string) (bool, error) {
	if err := validatePassage(text, documentName, embedding, documentID); err != nil {
		return false, err
	}

	passage := StoredPassage{
		ID:           uuid.New().String(),
		Text:         text,
		DocumentName: documentName,
		NPC:          npc,
		Embedding:    embedding,
		DocumentID:   documentID,
	}

	s.mu.Lock()
	s.passages = append(s.passages, passage)
	s.mu.Unlock()

	s.logger.Debug("stored passage in memory",
		zap.String("document_id", documentID),
		zap.String("document_name", documentName))

	return true, nil
}

// IsReachable always reports true; there is no external service to probe.
func (s *InMemoryStore) IsReachable(_ context.Context) bool {
	return true
}

// Len returns the number of stored passages.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages)
}
