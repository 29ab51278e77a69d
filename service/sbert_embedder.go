package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SBERTEmbedder calls a sentence-transformers HTTP service that accepts
// {"text": ...} and answers {"embedding": [...]}.
type SBERTEmbedder struct {
	url    string
	client *http.Client
}

func NewSBERTEmbedder(url string, timeout time.Duration) *SBERTEmbedder {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SBERTEmbedder{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *SBERTEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.url == "" {
		return nil, fmt.Errorf("SBERT_EMBEDDING_URL is not defined")
	}
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sbert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sbert embed failed: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid response from SBERT service: %w", err)
	}
	return out.Embedding, nil
}
