package database

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tieubaoca/wisdom-rag/types"
)

type memoryCollection struct {
	spec   types.CollectionSpec
	order  []string
	points map[string]types.Point
}

// MemoryStore keeps collections in process memory. It backs local runs and
// tests; nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) CreateCollection(ctx context.Context, name string, spec types.CollectionSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	s.collections[name] = &memoryCollection{spec: spec, points: make(map[string]types.Point)}
	return nil
}

func (s *MemoryStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	delete(s.collections, name)
	return nil
}

func (s *MemoryStore) CollectionDimension(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, fmt.Errorf("collection %s not found", name)
	}
	return c.spec.Dimension, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []types.Point, wait bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s not found", collection)
	}
	for _, p := range points {
		if c.spec.Dimension > 0 && len(p.Vector) != c.spec.Dimension {
			return fmt.Errorf("point %s: vector dimension %d does not match collection dimension %d", p.ID, len(p.Vector), c.spec.Dimension)
		}
	}
	for _, p := range points {
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		p.Vector = vec
		c.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, collection string, vector []float32, k int, filter *types.Filter) ([]types.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", collection)
	}
	if c.spec.Dimension > 0 && len(vector) != c.spec.Dimension {
		return nil, fmt.Errorf("query dimension %d does not match collection dimension %d", len(vector), c.spec.Dimension)
	}

	results := make([]types.RetrievalResult, 0, len(c.order))
	for _, id := range c.order {
		p := c.points[id]
		if !filter.Matches(p.Payload) {
			continue
		}
		results = append(results, types.RetrievalResult{
			ID:      p.ID,
			Payload: p.Payload,
			Score:   score(c.spec.Metric, vector, p.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func score(metric string, a, b []float32) float32 {
	if metric == types.MetricDot {
		return dot(a, b)
	}
	return cosineSimilarity(a, b)
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := 0; i < len(a) && i < len(b); i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

func cosineSimilarity(a, b []float32) float32 {
	var dotProduct, normA, normB float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}
