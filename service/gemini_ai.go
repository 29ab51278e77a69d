package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiService serves both generation and embeddings from Gemini. It rotates
// to the next API key when a call fails and retries once.
type GeminiService struct {
	apiKeys     []string
	currentKey  int
	client      *genai.Client
	modelName   string
	embedModel  string
	temperature float32
	logger      *zap.Logger
	mu          sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName, embedModel string, temperature float32, logger *zap.Logger) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("%w: no Gemini API keys provided", types.ErrConfiguration)
	}

	service := &GeminiService{
		apiKeys:     apiKeys,
		modelName:   modelName,
		embedModel:  embedModel,
		temperature: temperature,
		logger:      logger,
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKeys[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", types.ErrConfiguration, err)
	}
	service.client = client
	return service, nil
}

func (s *GeminiService) currentClient() *genai.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// rotateAPIKey swaps the client for one using the next key. failed is the
// client the caller saw fail; if another goroutine already rotated it, the
// current client is kept.
func (s *GeminiService) rotateAPIKey(ctx context.Context, failed *genai.Client) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != failed {
		return s.client, nil
	}
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return nil, err
	}
	if err := s.client.Close(); err != nil {
		s.logger.Warn("Error closing gemini client", zap.Error(err))
	}
	s.client = client
	s.logger.Info("Rotated Gemini API key", zap.Int("keyIndex", s.currentKey))
	return client, nil
}

func (s *GeminiService) Complete(ctx context.Context, req GenerationRequest) (string, error) {
	generate := func(client *genai.Client) (*genai.GenerateContentResponse, error) {
		model := client.GenerativeModel(s.modelName)
		model.SetTemperature(s.temperature)
		if req.SystemPrompt != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
		}
		if req.ResponseFormat == ResponseFormatJSON {
			model.ResponseMIMEType = "application/json"
		}
		return model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	}

	client := s.currentClient()
	resp, err := generate(client)
	if err != nil && len(s.apiKeys) > 1 {
		// Try rotating API key if there's an error
		s.logger.Warn("Gemini generation failed, rotating key", zap.Error(err))
		if client, rotateErr := s.rotateAPIKey(ctx, client); rotateErr == nil {
			resp, err = generate(client)
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %w", types.ErrGenerationTransport, err)
	}

	content := responseText(resp)
	if content == "" {
		s.logger.Warn("Gemini returned no text", zap.String("model", s.modelName))
	}
	return content, nil
}

func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	embed := func(client *genai.Client) (*genai.EmbedContentResponse, error) {
		return client.EmbeddingModel(s.embedModel).EmbedContent(ctx, genai.Text(text))
	}

	client := s.currentClient()
	resp, err := embed(client)
	if err != nil && len(s.apiKeys) > 1 {
		if client, rotateErr := s.rotateAPIKey(ctx, client); rotateErr == nil {
			resp, err = embed(client)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp == nil || resp.Embedding == nil {
		return nil, errors.New("gemini returned no embedding")
	}
	return resp.Embedding.Values, nil
}

func (s *GeminiService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		// Only the first candidate with content is used
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}
