package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

func TestOpenAIService_Complete(t *testing.T) {
	var body struct {
		Model          string  `json:"model"`
		Temperature    float32 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"s\",\"steps\":[\"a\"]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	svc := NewOpenAIService(srv.URL, "sk-test", "gpt-3.5-turbo", 0.3, zap.NewNop())
	out, err := svc.Complete(context.Background(), GenerationRequest{
		SystemPrompt:   "system",
		UserPrompt:     "user",
		ResponseFormat: ResponseFormatJSON,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"s","steps":["a"]}`, out)
	assert.Equal(t, "gpt-3.5-turbo", body.Model)
	assert.InDelta(t, 0.3, body.Temperature, 1e-6)
	assert.Equal(t, "json_object", body.ResponseFormat.Type)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "user", body.Messages[1].Content)
}

func TestOpenAIService_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIService(srv.URL, "bad", "gpt-3.5-turbo", 0.3, zap.NewNop()).
		Complete(context.Background(), GenerationRequest{UserPrompt: "q"})

	assert.True(t, errors.Is(err, types.ErrGenerationTransport))
}

func TestOpenAIService_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	out, err := NewOpenAIService(srv.URL, "sk", "gpt-3.5-turbo", 0.3, zap.NewNop()).
		Complete(context.Background(), GenerationRequest{UserPrompt: "q"})

	require.NoError(t, err)
	assert.Equal(t, "", out)
}
