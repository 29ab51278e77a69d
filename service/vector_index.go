package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tieubaoca/wisdom-rag/database"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

const (
	// DimensionProbe is the text embedded to discover the model dimension.
	DimensionProbe   = "test"
	DefaultDimension = 384
)

type VectorIndexConfig struct {
	Collection       string
	DefaultDimension int
	Metric           string
}

// VectorIndex owns one collection of a VectorStore, creating it lazily with
// the dimension of the live embedding model.
type VectorIndex struct {
	store  database.VectorStore
	probe  EmbeddingService
	cfg    VectorIndexConfig
	logger *zap.Logger

	mu        sync.Mutex
	dimension int
}

// NewVectorIndex takes the raw embedding service as probe so that the
// dimension check is a single call.
func NewVectorIndex(store database.VectorStore, probe EmbeddingService, cfg VectorIndexConfig, logger *zap.Logger) *VectorIndex {
	if cfg.DefaultDimension <= 0 {
		cfg.DefaultDimension = DefaultDimension
	}
	if cfg.Metric == "" {
		cfg.Metric = types.MetricCosine
	}
	return &VectorIndex{store: store, probe: probe, cfg: cfg, logger: logger}
}

func (v *VectorIndex) Collection() string { return v.cfg.Collection }

// EnsureCollection creates the collection when it does not exist, otherwise
// it adopts the dimension the collection was created with. Calling it again
// once the collection exists issues no create.
func (v *VectorIndex) EnsureCollection(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	names, err := v.store.ListCollections(ctx)
	if err != nil {
		v.logger.Error("Error checking collections", zap.String("collection", v.cfg.Collection), zap.Error(err))
		return fmt.Errorf("%w: list collections: %w", types.ErrIndex, err)
	}
	for _, name := range names {
		if strings.EqualFold(name, v.cfg.Collection) {
			return v.loadDimension(ctx)
		}
	}

	v.logger.Info("Collection missing, creating", zap.String("collection", v.cfg.Collection))
	dimension := v.probeDimension(ctx)
	spec := types.CollectionSpec{Dimension: dimension, Metric: v.cfg.Metric}
	if err := v.store.CreateCollection(ctx, v.cfg.Collection, spec); err != nil {
		v.logger.Error("Error creating collection", zap.String("collection", v.cfg.Collection), zap.Error(err))
		return fmt.Errorf("%w: create collection %s: %w", types.ErrIndex, v.cfg.Collection, err)
	}
	v.dimension = dimension
	v.logger.Info("Created collection",
		zap.String("collection", v.cfg.Collection),
		zap.Int("dimension", dimension),
		zap.String("metric", v.cfg.Metric),
	)
	return nil
}

// loadDimension reads the dimension of an existing collection so that points
// written after a restart are checked against it.
func (v *VectorIndex) loadDimension(ctx context.Context) error {
	if v.dimension > 0 {
		return nil
	}
	dimension, err := v.store.CollectionDimension(ctx, v.cfg.Collection)
	if err != nil {
		v.logger.Error("Error reading collection dimension", zap.String("collection", v.cfg.Collection), zap.Error(err))
		return fmt.Errorf("%w: read collection %s: %w", types.ErrIndex, v.cfg.Collection, err)
	}
	if dimension == 0 {
		v.logger.Warn("Collection has no recorded dimension, vectors are not checked", zap.String("collection", v.cfg.Collection))
		return nil
	}
	v.dimension = dimension
	v.logger.Info("Using existing collection",
		zap.String("collection", v.cfg.Collection),
		zap.Int("dimension", dimension),
	)
	return nil
}

// Reinit drops the collection and creates it again.
func (v *VectorIndex) Reinit(ctx context.Context) error {
	v.mu.Lock()
	if err := v.store.DeleteCollection(ctx, v.cfg.Collection); err != nil {
		v.logger.Warn("Error deleting collection", zap.String("collection", v.cfg.Collection), zap.Error(err))
	}
	v.dimension = 0
	v.mu.Unlock()
	return v.EnsureCollection(ctx)
}

func (v *VectorIndex) probeDimension(ctx context.Context) int {
	vector, err := v.probe.Embed(ctx, DimensionProbe)
	if err != nil || len(vector) == 0 {
		v.logger.Warn("Failed to fetch embedding dimension, using fallback",
			zap.Int("fallback", v.cfg.DefaultDimension),
			zap.Error(err),
		)
		return v.cfg.DefaultDimension
	}
	v.logger.Info("Detected embedding dimension", zap.Int("dimension", len(vector)))
	return len(vector)
}

// Upsert writes points and waits until the store acknowledges them. A
// failure means no point may be assumed persisted.
func (v *VectorIndex) Upsert(ctx context.Context, points []types.Point) error {
	if len(points) == 0 {
		return nil
	}
	v.mu.Lock()
	dimension := v.dimension
	v.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) == 0 {
			return fmt.Errorf("%w: point %s has no vector", types.ErrIndex, p.ID)
		}
		if dimension > 0 && len(p.Vector) != dimension {
			return fmt.Errorf("%w: point %s has dimension %d, collection expects %d", types.ErrIndex, p.ID, len(p.Vector), dimension)
		}
	}
	if err := v.store.Upsert(ctx, v.cfg.Collection, points, true); err != nil {
		return fmt.Errorf("%w: upsert %d points: %w", types.ErrIndex, len(points), err)
	}
	return nil
}

// Search returns the k closest points by descending score. filter may be nil.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, k int, filter *types.Filter) ([]types.RetrievalResult, error) {
	results, err := v.store.Search(ctx, v.cfg.Collection, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", types.ErrIndex, err)
	}
	return results, nil
}
