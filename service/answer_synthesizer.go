package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tieubaoca/wisdom-rag/logger"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

var systemPrompts = map[string]string{
	types.LanguageEnglish: `You are a helpful, calm, and wise assistant.
Answer the user's question based ONLY on the provided context.
If the answer is not in the context, politely say you don't know based on the available documents.
Provide a summary and a list of actionable steps if applicable.
Respond in English, the language of the user's query.
Format your response as a JSON object with keys: "summary" (string), "steps" (array of strings).`,
	types.LanguageMarathi: `You are a helpful, calm, and wise assistant.
Answer the user's question based ONLY on the provided context.
If the answer is not in the context, politely say you don't know based on the available documents.
Provide a summary and a list of actionable steps if applicable.
Respond in Marathi (मराठी), the language of the user's query.
Format your response as a JSON object with keys: "summary" (string), "steps" (array of strings).
Keep the JSON keys in English.`,
}

// SystemPrompt returns the instruction for language, falling back to English.
func SystemPrompt(language string) string {
	if prompt, ok := systemPrompts[language]; ok {
		return prompt
	}
	return systemPrompts[types.LanguageEnglish]
}

// BuildUserPrompt lays out the retrieved passages, each tagged with its page,
// followed by the question.
func BuildUserPrompt(query string, retrieved []types.RetrievalResult) string {
	passages := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		passages = append(passages, fmt.Sprintf("[Source: Page %d] %s", r.Payload.Page, r.Payload.Text))
	}
	return "Context:\n" + strings.Join(passages, "\n\n") + "\n\nQuestion: " + query
}

// ModelOutput is generation output resolved into exactly one of its shapes:
// a decoded structured answer or raw text.
type ModelOutput struct {
	Structured *types.Answer
	RawText    string
}

// ResolveModelOutput decodes raw into a structured answer when it is a JSON
// object with a non-empty summary. Anything else is kept as raw text.
func ResolveModelOutput(raw string) ModelOutput {
	body := stripCodeFence(strings.TrimSpace(raw))

	var decoded struct {
		Summary string   `json:"summary"`
		Steps   []string `json:"steps"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil || strings.TrimSpace(decoded.Summary) == "" {
		return ModelOutput{RawText: raw}
	}

	steps := make([]string, 0, len(decoded.Steps))
	for _, s := range decoded.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return ModelOutput{Structured: &types.Answer{Summary: strings.TrimSpace(decoded.Summary), Steps: steps}}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Answer returns the usable answer for the output. Raw text goes through the
// free-text parser.
func (o ModelOutput) Answer() types.Answer {
	if o.Structured != nil {
		return *o.Structured
	}
	return ParseFreeText(o.RawText)
}

type AnswerSynthesizer struct {
	generator GenerationService
	logger    *zap.Logger
}

func NewAnswerSynthesizer(generator GenerationService, logger *zap.Logger) *AnswerSynthesizer {
	return &AnswerSynthesizer{generator: generator, logger: logger}
}

// Synthesize asks the generation service for an answer grounded on retrieved.
// Only a failed generation call is returned as an error; malformed output
// degrades to the free-text parser.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, retrieved []types.RetrievalResult, language string) (types.Answer, error) {
	raw, err := s.generator.Complete(ctx, GenerationRequest{
		SystemPrompt:   SystemPrompt(language),
		UserPrompt:     BuildUserPrompt(query, retrieved),
		ResponseFormat: ResponseFormatJSON,
	})
	if err != nil {
		if types.Classify(err) == types.CodeUnknown {
			err = fmt.Errorf("%w: %w", types.ErrGenerationTransport, err)
		}
		return types.Answer{}, err
	}

	output := ResolveModelOutput(raw)
	if output.Structured == nil {
		s.logger.Warn("Model output is not structured, using free-text parser",
			zap.String("output", logger.Preview(raw, 200)),
		)
	}
	return output.Answer(), nil
}
