package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tieubaoca/wisdom-rag/config"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

// QdrantStore talks to the Qdrant REST API.
type QdrantStore struct {
	url    string
	apiKey string
	client *http.Client
	logger *zap.Logger
}

func NewQdrantStore(cfg config.VectorStoreConfig, logger *zap.Logger) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:    strings.TrimRight(cfg.Host, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type qdrantStatus struct {
	Error string `json:"error"`
}

type qdrantResponse struct {
	Status json.RawMessage `json:"status"`
	Result json.RawMessage `json:"result"`
}

type qdrantScoredPoint struct {
	ID      interface{}        `json:"id"`
	Score   float32            `json:"score"`
	Payload types.ChunkPayload `json:"payload"`
}

func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	var result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &result); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Collections))
	for _, c := range result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *QdrantStore) CreateCollection(ctx context.Context, name string, spec types.CollectionSpec) error {
	distance := "Cosine"
	if spec.Metric == types.MetricDot {
		distance = "Dot"
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimension,
			"distance": distance,
		},
	}
	return s.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body, nil)
}

func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	return s.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, nil)
}

// CollectionDimension reads config.params.vectors.size. Collections with
// named vectors report 0.
func (s *QdrantStore) CollectionDimension(ctx context.Context, name string) (int, error) {
	var result struct {
		Config struct {
			Params struct {
				Vectors json.RawMessage `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, &result); err != nil {
		return 0, err
	}
	var vectors struct {
		Size int `json:"size"`
	}
	if len(result.Config.Params.Vectors) == 0 || json.Unmarshal(result.Config.Params.Vectors, &vectors) != nil {
		return 0, nil
	}
	return vectors.Size, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []types.Point, wait bool) error {
	if len(points) == 0 {
		return nil
	}
	body := make([]map[string]any, len(points))
	for i, p := range points {
		body[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	path := fmt.Sprintf("/collections/%s/points?wait=%t", url.PathEscape(collection), wait)
	if err := s.do(ctx, http.MethodPut, path, map[string]any{"points": body}, nil); err != nil {
		return err
	}
	s.logger.Debug("Upserted points", zap.String("collection", collection), zap.Int("count", len(points)))
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, k int, filter *types.Filter) ([]types.RetrievalResult, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if !filter.IsEmpty() {
		must := make([]map[string]any, 0, len(filter.Must))
		for _, cond := range filter.Must {
			must = append(must, map[string]any{
				"key":   cond.Key,
				"match": map[string]any{"value": cond.Value},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var points []qdrantScoredPoint
	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(collection))
	if err := s.do(ctx, http.MethodPost, path, req, &points); err != nil {
		return nil, err
	}

	results := make([]types.RetrievalResult, 0, len(points))
	for _, p := range points {
		results = append(results, types.RetrievalResult{
			ID:      fmt.Sprint(p.ID),
			Payload: p.Payload,
			Score:   p.Score,
		})
	}
	return results, nil
}

// do sends a JSON request and decodes the "result" field of the response
// into out when out is not nil.
func (s *QdrantStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant %s %s: marshal request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var payload qdrantResponse
	if resp.StatusCode >= 300 {
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		var status qdrantStatus
		if len(payload.Status) > 0 && json.Unmarshal(payload.Status, &status) == nil && status.Error != "" {
			return fmt.Errorf("qdrant %s %s failed: %s: %s", method, path, resp.Status, status.Error)
		}
		return fmt.Errorf("qdrant %s %s failed: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("qdrant %s %s: decode response: %w", method, path, err)
	}
	if err := json.Unmarshal(payload.Result, out); err != nil {
		return fmt.Errorf("qdrant %s %s: decode result: %w", method, path, err)
	}
	return nil
}
