package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

type fakeGeneration struct {
	output string
	err    error
	last   GenerationRequest
	calls  int
}

func (f *fakeGeneration) Complete(ctx context.Context, req GenerationRequest) (string, error) {
	f.calls++
	f.last = req
	return f.output, f.err
}

func passage(text string, page int, score float32) types.RetrievalResult {
	return types.RetrievalResult{
		Payload: types.ChunkPayload{Text: text, Source: "Mind_Power.pdf", Page: page, Language: "en"},
		Score:   score,
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt("How do I stay calm?", []types.RetrievalResult{
		passage("Breathe deeply.", 3, 0.9),
		passage("Observe thoughts.", 7, 0.8),
	})

	assert.Equal(t, "Context:\n[Source: Page 3] Breathe deeply.\n\n[Source: Page 7] Observe thoughts.\n\nQuestion: How do I stay calm?", prompt)
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, SystemPrompt("en"), "ONLY on the provided context")
	assert.Contains(t, SystemPrompt("mr"), "Marathi")
	assert.Equal(t, SystemPrompt("en"), SystemPrompt("fr"))
	for _, lang := range []string{"en", "mr"} {
		assert.Contains(t, SystemPrompt(lang), `"summary"`)
		assert.Contains(t, SystemPrompt(lang), `"steps"`)
	}
}

func TestResolveModelOutput(t *testing.T) {
	out := ResolveModelOutput(`{"summary":" Be calm. ","steps":["Breathe"," ","Smile"]}`)
	require.NotNil(t, out.Structured)
	assert.Equal(t, "Be calm.", out.Structured.Summary)
	assert.Equal(t, []string{"Breathe", "Smile"}, out.Structured.Steps)

	fenced := ResolveModelOutput("```json\n{\"summary\":\"Fenced\",\"steps\":[]}\n```")
	require.NotNil(t, fenced.Structured)
	assert.Equal(t, "Fenced", fenced.Structured.Summary)

	raw := ResolveModelOutput("Not JSON at all")
	assert.Nil(t, raw.Structured)
	assert.Equal(t, "Not JSON at all", raw.RawText)

	noSummary := ResolveModelOutput(`{"steps":["a"]}`)
	assert.Nil(t, noSummary.Structured)
}

func TestAnswerSynthesizer_Structured(t *testing.T) {
	gen := &fakeGeneration{output: `{"summary":"Stay present.","steps":["Breathe","Observe"]}`}
	s := NewAnswerSynthesizer(gen, zap.NewNop())

	answer, err := s.Synthesize(context.Background(), "How?", []types.RetrievalResult{passage("text", 1, 0.9)}, "mr")

	require.NoError(t, err)
	assert.Equal(t, types.Answer{Summary: "Stay present.", Steps: []string{"Breathe", "Observe"}}, answer)
	assert.Equal(t, ResponseFormatJSON, gen.last.ResponseFormat)
	assert.Equal(t, SystemPrompt("mr"), gen.last.SystemPrompt)
	assert.True(t, strings.HasSuffix(gen.last.UserPrompt, "Question: How?"))
}

func TestAnswerSynthesizer_MalformedOutputDegrades(t *testing.T) {
	gen := &fakeGeneration{output: "Be gentle.\n\n1. Rest\n2. Reflect"}
	s := NewAnswerSynthesizer(gen, zap.NewNop())

	answer, err := s.Synthesize(context.Background(), "How?", nil, "en")

	require.NoError(t, err)
	assert.Equal(t, "Be gentle.", answer.Summary)
	assert.Equal(t, []string{"Rest", "Reflect"}, answer.Steps)
}

func TestAnswerSynthesizer_EmptyOutputUsesDefaults(t *testing.T) {
	s := NewAnswerSynthesizer(&fakeGeneration{}, zap.NewNop())

	answer, err := s.Synthesize(context.Background(), "How?", nil, "en")

	require.NoError(t, err)
	assert.Equal(t, DefaultSummary, answer.Summary)
	assert.Equal(t, []string{DefaultStep}, answer.Steps)
}

func TestAnswerSynthesizer_TransportError(t *testing.T) {
	s := NewAnswerSynthesizer(&fakeGeneration{err: errors.New("401 unauthorized")}, zap.NewNop())

	_, err := s.Synthesize(context.Background(), "How?", nil, "en")

	assert.True(t, errors.Is(err, types.ErrGenerationTransport))
}
