package retrieval

import (
	"context"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// MongoConfig holds connection parameters for the MongoDB backend.
type MongoConfig struct {
	URI         string // Connection string (e.g. "mongodb+srv://...")
	Database    string // Database name
	Collection  string // Collection holding stored passages
	VectorIndex string // Name of the Atlas vector search index on the embedding field
}

// DefaultMongoConfig returns configuration from environment variables.
func DefaultMongoConfig() MongoConfig {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	database := os.Getenv("MONGODB_DATABASE")
	if database == "" {
		database = "lorekeep"
	}

	collection := os.Getenv("MONGODB_COLLECTION")
	if collection == "" {
		collection = "contexts"
	}

	index := os.Getenv("MONGODB_VECTOR_INDEX")
	if index == "" {
		index = "embedding_index"
	}

	return MongoConfig{
		URI:         uri,
		Database:    database,
		Collection:  collection,
		VectorIndex: index,
	}
}

// MongoStore is the persistent backend over a MongoDB Atlas vector search
// index. The index ranks approximately; GetContext oversamples candidates
// and re-scores them locally with the exact metric before thresholding.
type MongoStore struct {
	client *mongo.Client
	config MongoConfig
	params SearchParams
	logger *zap.Logger
}

// NewMongoStore creates a MongoDB-backed store. The driver connects lazily,
// so construction succeeds without a reachable server; use IsReachable to
// probe liveness.
func NewMongoStore(config MongoConfig, params SearchParams, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return &MongoStore{
		client: client,
		config: config,
		params: params,
		logger: logger,
	}, nil
}

// collection returns the passage collection handle.
func (m *MongoStore) collection() *mongo.Collection {
	return m.client.Database(m.config.Database).Collection(m.config.Collection)
}

// GetContext issues an ANN query for the oversampled nearest vectors across
// the whole index, then filters the candidates by document scope and exact
// similarity. An empty candidate set is a normal empty result.
func (m *MongoStore) GetContext(ctx context.Context, documentID string, embedding []float32) ([]Context, error) {
	if err := validateQuery(embedding); err != nil {
		return nil, err
	}

	numCandidates := m.params.numCandidates()
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: m.config.VectorIndex},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: embedding},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: numCandidates},
		}}},
	}

	cursor, err := m.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []StoredPassage
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}

	return filterCandidates(candidates, documentID, embedding, m.params), nil
}

// PostContext inserts one passage document. Write failures (connectivity,
// constraint violations) are reported as false so callers can retry.
func (m *MongoStore) PostContext(ctx context.Context, text, documentName string, npc int, embedding []float32, documentID string) (bool, error) {
	if err := validatePassage(text, documentName, embedding, documentID); err != nil {
		return false, err
	}

	doc := bson.D{
		{Key: "text", Value: text},
		{Key: "document_name", Value: documentName},
		{Key: "NPC", Value: npc},
		{Key: "embedding", Value: embedding},
		{Key: "document_id", Value: documentID},
	}

	if _, err := m.collection().InsertOne(ctx, doc); err != nil {
		m.logger.Warn("failed to insert passage",
			zap.String("document_id", documentID),
			zap.Error(err))
		return false, nil
	}

	return true, nil
}

// IsReachable pings the primary. Connection errors degrade to false.
func (m *MongoStore) IsReachable(ctx context.Context) bool {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		m.logger.Warn("mongodb unreachable", zap.Error(err))
		return false
	}
	return true
}

// Close releases the client connection pool.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
