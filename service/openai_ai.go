package service

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

type OpenAIService struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

func NewOpenAIService(baseURL, apiKey, model string, temperature float32, logger *zap.Logger) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL // Set this to a local OpenAI compatible server if needed
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

func (s *OpenAIService) Complete(ctx context.Context, req GenerationRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	request := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
	}
	if req.ResponseFormat == ResponseFormatJSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %w", types.ErrGenerationTransport, err)
	}

	if len(resp.Choices) == 0 {
		s.logger.Warn("OpenAI returned no choices", zap.String("model", s.model))
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
