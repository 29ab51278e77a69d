package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/wisdom-rag/types"
	"github.com/weaviate/weaviate/entities/models"
)

func TestParseSearchResponse(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{
			"Manashakti": []interface{}{
				map[string]interface{}{
					"text":     "Breathe slowly before the exam.",
					"source":   "Chapter_3.pdf",
					"page":     float64(4),
					"language": "en",
					"type":     "document_ai",
					"_additional": map[string]interface{}{
						"id":       "5b6f2c1e-1a2b-4c3d-9e8f-001122334455",
						"distance": 0.25,
					},
				},
				"not an object",
			},
		},
	}

	results := parseSearchResponse("Manashakti", types.MetricCosine, data)

	require.Len(t, results, 1)
	assert.Equal(t, "5b6f2c1e-1a2b-4c3d-9e8f-001122334455", results[0].ID)
	assert.InDelta(t, 0.75, results[0].Score, 1e-6)
	assert.Equal(t, types.ChunkPayload{
		Text:     "Breathe slowly before the exam.",
		Source:   "Chapter_3.pdf",
		Page:     4,
		Language: "en",
		Type:     "document_ai",
	}, results[0].Payload)

	assert.Empty(t, parseSearchResponse("Other", types.MetricCosine, data))
	assert.Empty(t, parseSearchResponse("Manashakti", types.MetricCosine, map[string]models.JSONObject{}))
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "Manashakti", className("manashakti"))
	assert.Equal(t, "Manashakti", className("Manashakti"))
	assert.Equal(t, "", className(""))
}

func TestChunkClass(t *testing.T) {
	class := chunkClass("Teachings", types.CollectionSpec{Dimension: 384, Metric: types.MetricCosine})

	assert.Equal(t, "Teachings", class.Class)
	assert.Equal(t, "none", class.Vectorizer)
	assert.Equal(t, map[string]interface{}{"distance": "cosine"}, class.VectorIndexConfig)
	assert.Len(t, class.Properties, 5)
	assert.Equal(t, 384, classDimension(class))
}

func TestClassDimension(t *testing.T) {
	assert.Equal(t, 768, classDimension(chunkClass("Teachings", types.CollectionSpec{Dimension: 768})))
	assert.Equal(t, 0, classDimension(&models.Class{Class: "Legacy"}))
	assert.Equal(t, 0, classDimension(&models.Class{Description: dimensionDescriptionPrefix + "abc"}))
	assert.Equal(t, 0, classDimension(nil))
}

func TestParseSearchResponse_DotMetric(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{
			"Manashakti": []interface{}{
				map[string]interface{}{
					"text":        "Stay present.",
					"_additional": map[string]interface{}{"id": "a", "distance": -0.8},
				},
			},
		},
	}

	results := parseSearchResponse("Manashakti", types.MetricDot, data)

	require.Len(t, results, 1)
	assert.InDelta(t, 0.8, results[0].Score, 1e-6)
}

func TestPointObject(t *testing.T) {
	obj := pointObject("Teachings", types.Point{
		ID:      "5b6f2c1e-1a2b-4c3d-9e8f-001122334455",
		Vector:  []float32{0.1, 0.2},
		Payload: types.ChunkPayload{Text: "t", Source: "s.pdf", Page: 2, Language: "mr"},
	})

	assert.Equal(t, "5b6f2c1e-1a2b-4c3d-9e8f-001122334455", obj.ID.String())
	assert.Equal(t, 2, obj.Properties.(map[string]interface{})["page"])
	assert.Len(t, obj.Vector, 2)
}

func TestBuildWhereFilter(t *testing.T) {
	assert.Nil(t, buildWhereFilter(nil))
	assert.Nil(t, buildWhereFilter(&types.Filter{}))

	single := buildWhereFilter(&types.Filter{Must: []types.Condition{{Key: "source", Value: "a.pdf"}}})
	require.NotNil(t, single)
	assert.Contains(t, single.String(), "a.pdf")

	combined := buildWhereFilter(&types.Filter{Must: []types.Condition{
		{Key: "source", Value: "a.pdf"},
		{Key: "page", Value: 3},
	}})
	require.NotNil(t, combined)
	assert.Contains(t, combined.String(), "And")
}
