package retrieval

// Context represents a retrieved passage returned to callers.
// It carries no identity beyond its fields and is never mutated after construction.
type Context struct {
	Text         string `json:"text"`
	DocumentName string `json:"document_name"`
	NPC          int    `json:"NPC"`
}

// StoredPassage is the backend-internal record for one inserted passage.
// Records are append-only; nothing in this package updates or deletes them.
type StoredPassage struct {
	ID           string    `json:"id" bson:"-"`
	Text         string    `json:"text" bson:"text"`
	DocumentName string    `json:"document_name" bson:"document_name"`
	NPC          int       `json:"NPC" bson:"NPC"`
	Embedding    []float32 `json:"embedding" bson:"embedding"`
	DocumentID   string    `json:"document_id" bson:"document_id"`
}

// Context converts the stored record to the caller-facing value.
func (p StoredPassage) Context() Context {
	return Context{
		Text:         p.Text,
		DocumentName: p.DocumentName,
		NPC:          p.NPC,
	}
}

// SearchParams controls candidate retrieval and the exact similarity filter.
type SearchParams struct {
	// Threshold is the exact cosine similarity a passage must strictly exceed
	// to be included in results.
	Threshold float64

	// Oversample is the multiple of MaxResults requested from the ANN index
	// to compensate for approximation error before exact re-filtering.
	Oversample int

	// MaxResults caps the number of passages returned by GetContext.
	MaxResults int
}

// DefaultSearchParams returns the reference retrieval tuning.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Threshold:  0.7,
		Oversample: 10,
		MaxResults: 3,
	}
}

// numCandidates returns the oversampled candidate count for ANN queries.
func (p SearchParams) numCandidates() int {
	n := p.MaxResults * p.Oversample
	if n < p.MaxResults {
		n = p.MaxResults
	}
	return n
}
