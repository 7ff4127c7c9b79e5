package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// TestInMemoryStore_PostAndGet tests the insert/retrieve roundtrip:
// self-similarity always exceeds the threshold
func TestInMemoryStore_PostAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(DefaultSearchParams(), nil)
	embedding := []float32{0.1, 0.9, 0.3}

	ok, err := store.PostContext(ctx, "alpha", "doc1", 1, embedding, "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected PostContext to succeed")
	}

	contexts, err := store.GetContext(ctx, "d1", embedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("expected 1 context, got %d", len(contexts))
	}

	got := contexts[0]
	if got.Text != "alpha" || got.DocumentName != "doc1" || got.NPC != 1 {
		t.Errorf("unexpected context: %+v", got)
	}
}

// TestInMemoryStore_ScopeIsolation tests that a passage never leaks outside
// its document scope, even at maximal similarity
func TestInMemoryStore_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(DefaultSearchParams(), nil)
	embedding := []float32{0.5, 0.5}

	if _, err := store.PostContext(ctx, "alpha", "doc1", 1, embedding, "d1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contexts, err := store.GetContext(ctx, "d2", embedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contexts) != 0 {
		t.Errorf("expected no cross-scope results, got %d", len(contexts))
	}
}

// TestInMemoryStore_NoMatchIsEmpty tests that a query dissimilar to every
// stored passage returns an empty result, not an error
func TestInMemoryStore_NoMatchIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(DefaultSearchParams(), nil)

	if _, err := store.PostContext(ctx, "alpha", "doc1", 1, []float32{1, 0}, "d1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Orthogonal query: similarity 0, well under the threshold
	contexts, err := store.GetContext(ctx, "d1", []float32{0, 1})
	if err != nil {
		t.Fatalf("expected no error for empty result, got %v", err)
	}
	if len(contexts) != 0 {
		t.Errorf("expected empty result, got %d contexts", len(contexts))
	}
}

// TestInMemoryStore_InvalidInput tests precondition enforcement on both
// operations, and that a rejected insert stores nothing
func TestInMemoryStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(DefaultSearchParams(), nil)
	embedding := []float32{1, 0}

	tests := []struct {
		name         string
		text         string
		documentName string
		embedding    []float32
		documentID   string
	}{
		{"empty text", "", "doc1", embedding, "d1"},
		{"empty document name", "alpha", "", embedding, "d1"},
		{"empty embedding", "alpha", "doc1", nil, "d1"},
		{"empty document id", "alpha", "doc1", embedding, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := store.PostContext(ctx, tt.text, tt.documentName, 1, tt.embedding, tt.documentID)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if ok {
				t.Error("expected PostContext to report failure")
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("expected nothing stored after rejected inserts, got %d", store.Len())
	}

	if _, err := store.GetContext(ctx, "d1", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty query embedding, got %v", err)
	}
}

// TestInMemoryStore_IsReachable tests that the in-memory backend is always live
func TestInMemoryStore_IsReachable(t *testing.T) {
	store := NewInMemoryStore(DefaultSearchParams(), nil)
	if !store.IsReachable(context.Background()) {
		t.Error("expected in-memory store to be reachable")
	}
}

// TestInMemoryStore_ConcurrentWrites tests that concurrent appends lose no
// records
func TestInMemoryStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(DefaultSearchParams(), nil)

	const writers = 16
	const writesPerWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < writesPerWriter; i++ {
				text := fmt.Sprintf("passage %d-%d", w, i)
				if _, err := store.PostContext(ctx, text, "doc1", w, []float32{1, float32(i)}, "d1"); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	if store.Len() != writers*writesPerWriter {
		t.Errorf("expected %d stored passages, got %d", writers*writesPerWriter, store.Len())
	}
}

// TestInMemoryStore_ResultCap tests that results are capped at MaxResults
// with the best matches kept
func TestInMemoryStore_ResultCap(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(DefaultSearchParams(), nil)
	query := []float32{1, 0}

	for i := 0; i < 5; i++ {
		// All similar enough to pass the 0.7 threshold
		emb := []float32{1, float32(i) * 0.1}
		if _, err := store.PostContext(ctx, fmt.Sprintf("p%d", i), "doc1", 1, emb, "d1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	contexts, err := store.GetContext(ctx, "d1", query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contexts) != 3 {
		t.Fatalf("expected 3 results, got %d", len(contexts))
	}
	// Best-first: smallest second component is most similar to (1, 0)
	if contexts[0].Text != "p0" {
		t.Errorf("expected best match p0 first, got %q", contexts[0].Text)
	}
}
