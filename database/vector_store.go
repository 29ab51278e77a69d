package database

import (
	"context"

	"github.com/tieubaoca/wisdom-rag/types"
)

// VectorStore is the storage backend of the vector index. Implementations
// return raw backend errors; the index layer classifies them.
type VectorStore interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string, spec types.CollectionSpec) error
	DeleteCollection(ctx context.Context, name string) error
	// CollectionDimension reports the vector dimension an existing collection
	// was created with, or 0 when the backend did not record one.
	CollectionDimension(ctx context.Context, name string) (int, error)
	// Upsert inserts or replaces points by id. When wait is true the call
	// returns only after the points are searchable.
	Upsert(ctx context.Context, collection string, points []types.Point, wait bool) error
	// Search returns at most k points ordered by descending score.
	Search(ctx context.Context, collection string, vector []float32, k int, filter *types.Filter) ([]types.RetrievalResult, error)
}
