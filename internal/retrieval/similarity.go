package retrieval

import (
	"fmt"
	"math"
	"sort"
)

// Cosine computes the exact cosine similarity between two vectors: the dot
// product divided by the product of their magnitudes. The result is in
// [-1, 1]. It returns ErrInvalidInput for empty vectors, mismatched lengths,
// or a zero-magnitude vector (division by zero is rejected, not returned as
// NaN).
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrInvalidInput)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: vector length mismatch (%d vs %d)", ErrInvalidInput, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: zero-magnitude vector", ErrInvalidInput)
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// scoredPassage pairs a candidate with its exact similarity to the query.
type scoredPassage struct {
	passage StoredPassage
	score   float64
}

// filterCandidates applies the exact similarity filter shared by every
// backend: candidates outside documentID are dropped, the rest are re-scored
// locally with Cosine (ANN scores are approximate and never trusted for the
// threshold decision), passages at or below params.Threshold are discarded,
// and the survivors are returned best-first, capped at params.MaxResults.
//
// Candidates whose stored embedding cannot be compared to the query are
// skipped rather than failing the whole query.
func filterCandidates(candidates []StoredPassage, documentID string, query []float32, params SearchParams) []Context {
	scored := make([]scoredPassage, 0, len(candidates))
	for _, cand := range candidates {
		if cand.DocumentID != documentID {
			continue
		}
		score, err := Cosine(query, cand.Embedding)
		if err != nil {
			continue
		}
		if score > params.Threshold {
			scored = append(scored, scoredPassage{passage: cand, score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if params.MaxResults > 0 && len(scored) > params.MaxResults {
		scored = scored[:params.MaxResults]
	}

	contexts := make([]Context, len(scored))
	for i, s := range scored {
		contexts[i] = s.passage.Context()
	}
	return contexts
}
