package types

import (
	"context"
	"errors"
)

// Pipeline error categories. Components wrap these with fmt.Errorf("...: %w")
// so callers can classify failures with errors.Is.
var (
	// ErrConfiguration indicates a required service setting is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrExtraction indicates the document processor failed or returned no document.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbeddingService indicates the embedding call failed or returned no vector.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrIndex indicates the vector store is unreachable or the schema does not match.
	ErrIndex = errors.New("vector index error")

	// ErrGenerationTransport indicates the generation call itself failed.
	ErrGenerationTransport = errors.New("generation transport error")

	// ErrProcessingTimeout indicates an ingestion job did not settle in time.
	ErrProcessingTimeout = errors.New("processing timeout")

	ErrInvalidInput = errors.New("invalid input")

	// ErrNoContent indicates a document produced no text to index.
	ErrNoContent = errors.New("no content extracted")

	ErrNotFound = errors.New("not found")
)

// Code is the category of a pipeline error, used for logs and status mapping.
type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeConfiguration Code = "configuration"
	CodeExtraction    Code = "extraction"
	CodeEmbedding     Code = "embedding"
	CodeIndex         Code = "index"
	CodeGeneration    Code = "generation"
	CodeTimeout       Code = "timeout"
	CodeInvalidInput  Code = "invalid_input"
	CodeNoContent     Code = "no_content"
	CodeNotFound      Code = "not_found"
	CodeCancel        Code = "cancel"
)

// Classify maps err to its category. Sentinels take precedence over context errors.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNoContent):
		return CodeNoContent
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrExtraction):
		return CodeExtraction
	case errors.Is(err, ErrEmbeddingService):
		return CodeEmbedding
	case errors.Is(err, ErrIndex):
		return CodeIndex
	case errors.Is(err, ErrGenerationTransport):
		return CodeGeneration
	case errors.Is(err, ErrProcessingTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCancel
	default:
		return CodeUnknown
	}
}

var userMessages = map[Code]string{
	CodeConfiguration: "Server configuration error. Please contact support.",
	CodeExtraction:    "Failed to read the document. Please try another file.",
	CodeEmbedding:     "The search service is unavailable right now. Please try again.",
	CodeIndex:         "The knowledge base is unavailable right now. Please try again.",
	CodeGeneration:    "Unable to generate an answer at this time. Please try again.",
	CodeTimeout:       "The request took too long. Please try again.",
	CodeInvalidInput:  "Invalid request.",
	CodeNoContent:     "No text extracted from document.",
	CodeNotFound:      "Not found.",
	CodeCancel:        "The request was cancelled.",
}

// UserMessage returns a message safe to show to API callers. Internal error
// details never leak through it. Validation errors keep their own message.
func UserMessage(err error) string {
	var inputErr *InvalidInputError
	if errors.As(err, &inputErr) {
		return inputErr.Message
	}
	if msg, ok := userMessages[Classify(err)]; ok {
		return msg
	}
	return "An unexpected error occurred."
}

// InvalidInputError carries a caller-facing validation message.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func NewInvalidInputError(message string) error {
	return &InvalidInputError{Message: message}
}
