package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSBERTEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "inner peace", body["text"])
		w.Write([]byte(`{"embedding":[0.25,-0.5,1]}`))
	}))
	defer srv.Close()

	vec, err := NewSBERTEmbedder(srv.URL, time.Second).Embed(context.Background(), "inner peace")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
}

func TestSBERTEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Text too short to embed"}`))
	}))
	defer srv.Close()

	_, err := NewSBERTEmbedder(srv.URL, time.Second).Embed(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Text too short to embed")
}

func TestSBERTEmbedder_MissingURL(t *testing.T) {
	_, err := NewSBERTEmbedder("", 0).Embed(context.Background(), "text")
	assert.Error(t, err)
}
