package service

import (
	"context"
	"fmt"

	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

// Retriever embeds a query and searches the vector index with it.
type Retriever struct {
	embedder *Embedder
	index    *VectorIndex
	logger   *zap.Logger
}

func NewRetriever(embedder *Embedder, index *VectorIndex, logger *zap.Logger) *Retriever {
	return &Retriever{embedder: embedder, index: index, logger: logger}
}

// Retrieve returns up to k passages ordered by descending score. A query is
// never searched with a missing or zero vector.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]types.RetrievalResult, error) {
	return r.RetrieveWithFilter(ctx, query, k, nil)
}

func (r *Retriever) RetrieveWithFilter(ctx context.Context, query string, k int, filter *types.Filter) ([]types.RetrievalResult, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.index.Search(ctx, vector, k, filter)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Retrieved passages", zap.Int("k", k), zap.Int("results", len(results)))
	return results, nil
}
