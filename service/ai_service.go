package service

import (
	"context"
)

type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "text"
	ResponseFormatJSON ResponseFormat = "json_object"
)

type GenerationRequest struct {
	SystemPrompt   string
	UserPrompt     string
	ResponseFormat ResponseFormat
}

// GenerationService completes a single system + user turn. Errors are
// transport or auth failures only; the returned text is not validated.
type GenerationService interface {
	Complete(ctx context.Context, req GenerationRequest) (string, error)
}
