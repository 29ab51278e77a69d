package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/tieubaoca/wisdom-rag/config"
	"github.com/tieubaoca/wisdom-rag/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"
)

const BATCH_SIZE = 200

// Weaviate classes have no fixed vector size, so the dimension chosen at
// creation is kept in the class description.
const dimensionDescriptionPrefix = "Document chunks, vector dimension "

var chunkFields = []graphql.Field{
	{Name: "text"},
	{Name: "source"},
	{Name: "page"},
	{Name: "language"},
	{Name: "type"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
}

type WeaviateStore struct {
	client *weaviate.Client
	metric string
	logger *zap.Logger
}

func NewWeaviateStore(cfg config.VectorStoreConfig, logger *zap.Logger) (*WeaviateStore, error) {
	var scheme string
	if strings.HasPrefix(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return &WeaviateStore{
		client: client,
		metric: cfg.Metric,
		logger: logger,
	}, nil
}

func (s *WeaviateStore) ListCollections(ctx context.Context) ([]string, error) {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	names := make([]string, 0, len(schema.Classes))
	for _, class := range schema.Classes {
		names = append(names, class.Class)
	}
	return names, nil
}

func (s *WeaviateStore) CreateCollection(ctx context.Context, name string, spec types.CollectionSpec) error {
	err := s.client.Schema().ClassCreator().WithClass(chunkClass(className(name), spec)).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create class %s: %w", name, err)
	}
	return nil
}

func (s *WeaviateStore) DeleteCollection(ctx context.Context, name string) error {
	err := s.client.Schema().ClassDeleter().WithClassName(className(name)).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete class %s: %w", name, err)
	}
	return nil
}

func (s *WeaviateStore) CollectionDimension(ctx context.Context, name string) (int, error) {
	class, err := s.client.Schema().ClassGetter().WithClassName(className(name)).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get class %s: %w", name, err)
	}
	return classDimension(class), nil
}

// Upsert writes points in batches. Weaviate batch writes are visible to
// search once acknowledged, so wait needs no extra handling.
func (s *WeaviateStore) Upsert(ctx context.Context, collection string, points []types.Point, wait bool) error {
	class := className(collection)
	total := len(points)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(pointObject(class, points[j]))
		}

		results, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
		if err := batchError(results); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}

		s.logger.Debug("Inserted batch",
			zap.String("class", class),
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int("total", total),
		)
	}
	return nil
}

func (s *WeaviateStore) Search(ctx context.Context, collection string, vector []float32, k int, filter *types.Filter) ([]types.RetrievalResult, error) {
	class := className(collection)
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(chunkFields...).
		WithNearVector(nearVector)
	if k > 0 {
		getBuilder = getBuilder.WithLimit(k)
	}
	if where := buildWhereFilter(filter); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search failed: %s", result.Errors[0].Message)
	}
	return parseSearchResponse(class, s.metric, result.Data), nil
}

func chunkClass(name string, spec types.CollectionSpec) *models.Class {
	distance := "cosine"
	if spec.Metric == types.MetricDot {
		distance = "dot"
	}
	return &models.Class{
		Class:       name,
		Description: dimensionDescriptionPrefix + strconv.Itoa(spec.Dimension),
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "language", DataType: []string{"text"}},
			{Name: "type", DataType: []string{"text"}},
		},
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": distance,
		},
	}
}

// classDimension returns 0 for classes created without a recorded dimension.
func classDimension(class *models.Class) int {
	if class == nil {
		return 0
	}
	value, ok := strings.CutPrefix(class.Description, dimensionDescriptionPrefix)
	if !ok {
		return 0
	}
	dimension, err := strconv.Atoi(value)
	if err != nil || dimension < 0 {
		return 0
	}
	return dimension
}

// similarity turns a Weaviate distance back into a score where higher is
// closer. Weaviate reports the negated dot product as the dot distance.
func similarity(metric string, distance float64) float32 {
	if metric == types.MetricDot {
		return float32(-distance)
	}
	return float32(1 - distance)
}

func pointObject(class string, p types.Point) *models.Object {
	return &models.Object{
		Class: class,
		ID:    strfmt.UUID(p.ID),
		Properties: map[string]interface{}{
			"text":     p.Payload.Text,
			"source":   p.Payload.Source,
			"page":     p.Payload.Page,
			"language": p.Payload.Language,
			"type":     p.Payload.Type,
		},
		Vector: p.Vector,
	}
}

func batchError(results []models.ObjectsGetResponse) error {
	for _, res := range results {
		if res.Result == nil || res.Result.Errors == nil {
			continue
		}
		for _, item := range res.Result.Errors.Error {
			if item != nil {
				return fmt.Errorf("object %s: %s", res.ID, item.Message)
			}
		}
	}
	return nil
}

// className maps a collection name onto a valid Weaviate class name, which
// must start with an upper case letter.
func className(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func parseSearchResponse(class, metric string, data map[string]models.JSONObject) []types.RetrievalResult {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := get[class].([]interface{})
	if !ok {
		return nil
	}

	results := make([]types.RetrievalResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var res types.RetrievalResult
		res.Payload.Text, _ = obj["text"].(string)
		res.Payload.Source, _ = obj["source"].(string)
		res.Payload.Language, _ = obj["language"].(string)
		res.Payload.Type, _ = obj["type"].(string)
		if page, ok := obj["page"].(float64); ok {
			res.Payload.Page = int(page)
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			res.ID, _ = additional["id"].(string)
			if distance, ok := additional["distance"].(float64); ok {
				res.Score = similarity(metric, distance)
			}
		}
		results = append(results, res)
	}
	return results
}

func buildWhereFilter(filter *types.Filter) *filters.WhereBuilder {
	if filter.IsEmpty() {
		return nil
	}

	operands := make([]*filters.WhereBuilder, 0, len(filter.Must))
	for _, cond := range filter.Must {
		where := filters.Where().
			WithPath([]string{cond.Key}).
			WithOperator(filters.Equal)
		switch v := cond.Value.(type) {
		case int:
			where = where.WithValueInt(int64(v))
		case int64:
			where = where.WithValueInt(v)
		case float64:
			where = where.WithValueInt(int64(v))
		default:
			where = where.WithValueString(fmt.Sprint(v))
		}
		operands = append(operands, where)
	}

	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().
		WithOperator(filters.And).
		WithOperands(operands)
}
