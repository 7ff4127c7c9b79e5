package retrieval

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Backend kinds recognized by SelectStore.
const (
	BackendMongoDB = "mongodb"
	BackendMilvus  = "milvus"
	BackendMock    = "mock"
)

// Config aggregates everything needed to construct a retrieval backend at
// startup. Values are opaque startup inputs; nothing here is re-read after
// selection.
type Config struct {
	// Backend names the store implementation: "mongodb", "milvus" or "mock".
	Backend string

	Mongo  MongoConfig
	Milvus MilvusConfig
	Search SearchParams
}

// DefaultConfig returns configuration from environment variables, keeping
// the reference search tuning when the variables are unset.
func DefaultConfig() Config {
	backend := os.Getenv("RAG_DATABASE_SYSTEM")
	if backend == "" {
		backend = BackendMongoDB
	}

	search := DefaultSearchParams()
	if v, err := strconv.ParseFloat(os.Getenv("SIMILARITY_THRESHOLD"), 64); err == nil {
		search.Threshold = v
	}
	if v, err := strconv.Atoi(os.Getenv("SEARCH_OVERSAMPLE")); err == nil && v > 0 {
		search.Oversample = v
	}
	if v, err := strconv.Atoi(os.Getenv("SEARCH_MAX_RESULTS")); err == nil && v > 0 {
		search.MaxResults = v
	}

	return Config{
		Backend: backend,
		Mongo:   DefaultMongoConfig(),
		Milvus:  DefaultMilvusConfig(),
		Search:  search,
	}
}

// The mock backend must behave as one shared collection for the whole
// process: every selection returns the same instance, so a passage posted
// through one reference is visible through any other.
var (
	sharedMockOnce sync.Once
	sharedMock     *InMemoryStore
)

// SelectStore constructs the backend named by cfg.Backend. Selection happens
// once per process lifetime; callers hold on to the returned Store and share
// it by injection. Unknown kinds fail with ErrUnsupportedBackend.
func SelectStore(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendMongoDB:
		return NewMongoStore(cfg.Mongo, cfg.Search, logger)
	case BackendMilvus:
		return NewMilvusStore(ctx, cfg.Milvus, cfg.Search, logger)
	case BackendMock:
		sharedMockOnce.Do(func() {
			sharedMock = NewInMemoryStore(cfg.Search, logger)
		})
		return sharedMock, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}
