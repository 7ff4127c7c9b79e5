package retrieval

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 1536 for text-embedding-3-small)
	IndexType      string // Index type (default: "HNSW")
	MetricType     string // Similarity metric (default: "COSINE")

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
}

// DefaultMilvusConfig returns default configuration from environment variables
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "lorekeep_contexts"
	}

	dimension := 1536
	if dim, err := strconv.Atoi(os.Getenv("EMBEDDING_DIMENSION")); err == nil && dim > 0 {
		dimension = dim
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      dimension,
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		M:              16,
		EfConstruction: 256,
	}
}

// MilvusStore is an alternative persistent backend over a Milvus ANN index.
// It satisfies the same contract as MongoStore: the index supplies an
// oversampled approximate candidate set and the exact similarity filter
// decides what is returned.
type MilvusStore struct {
	client client.Client
	config MilvusConfig
	params SearchParams
	logger *zap.Logger
}

// NewMilvusStore connects to Milvus and ensures the passage collection
// exists with its HNSW index.
func NewMilvusStore(ctx context.Context, config MilvusConfig, params SearchParams, logger *zap.Logger) (*MilvusStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid vector dimension %d", ErrInvalidInput, config.Dimension)
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
		params: params,
		logger: logger,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     "document_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "document_name",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "npc",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// GetContext searches the whole collection for the oversampled nearest
// vectors, then filters by document scope and exact similarity. The stored
// embeddings come back as an output field so the re-score is local.
func (m *MilvusStore) GetContext(ctx context.Context, documentID string, embedding []float32) ([]Context, error) {
	if err := validateQuery(embedding); err != nil {
		return nil, err
	}
	if len(embedding) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected dimension %d, got %d", ErrInvalidInput, m.config.Dimension, len(embedding))
	}

	// ef must be at least the requested candidate count
	ef := 64
	if n := m.params.numCandidates(); n > ef {
		ef = n
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(embedding)}
	outputFields := []string{"document_id", "document_name", "text", "npc", "embedding"}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",  // the index is not scoped per document; scope filtering happens locally
		outputFields,
		vectors,
		"embedding",
		entity.COSINE,
		m.params.numCandidates(),
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if len(results) == 0 {
		return []Context{}, nil
	}

	candidates := make([]StoredPassage, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		var passage StoredPassage
		for _, field := range results[0].Fields {
			switch field.Name() {
			case "document_id":
				passage.DocumentID = field.(*entity.ColumnVarChar).Data()[i]
			case "document_name":
				passage.DocumentName = field.(*entity.ColumnVarChar).Data()[i]
			case "text":
				passage.Text = field.(*entity.ColumnVarChar).Data()[i]
			case "npc":
				passage.NPC = int(field.(*entity.ColumnInt64).Data()[i])
			case "embedding":
				passage.Embedding = field.(*entity.ColumnFloatVector).Data()[i]
			}
		}
		candidates = append(candidates, passage)
	}

	return filterCandidates(candidates, documentID, embedding, m.params), nil
}

// PostContext appends one passage row and flushes. Insert failures are
// reported as false, not propagated.
func (m *MilvusStore) PostContext(ctx context.Context, text, documentName string, npc int, embedding []float32, documentID string) (bool, error) {
	if err := validatePassage(text, documentName, embedding, documentID); err != nil {
		return false, err
	}
	if len(embedding) != m.config.Dimension {
		return false, fmt.Errorf("%w: expected dimension %d, got %d", ErrInvalidInput, m.config.Dimension, len(embedding))
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("document_id", []string{documentID}),
		entity.NewColumnVarChar("document_name", []string{documentName}),
		entity.NewColumnVarChar("text", []string{text}),
		entity.NewColumnInt64("npc", []int64{int64(npc)}),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, [][]float32{embedding}),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		m.logger.Warn("failed to insert passage",
			zap.String("document_id", documentID),
			zap.Error(err))
		return false, nil
	}

	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		m.logger.Warn("failed to flush collection", zap.Error(err))
		return false, nil
	}

	return true, nil
}

// IsReachable probes the server with a collection existence check, the
// lightest read-only round trip the client exposes.
func (m *MilvusStore) IsReachable(ctx context.Context) bool {
	if _, err := m.client.HasCollection(ctx, m.config.CollectionName); err != nil {
		m.logger.Warn("milvus unreachable", zap.Error(err))
		return false
	}
	return true
}

// Close releases resources and closes the Milvus connection.
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
