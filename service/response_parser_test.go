package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFreeText(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		summary string
		steps   []string
	}{
		{
			name:    "empty input uses defaults",
			raw:     "  \n\n ",
			summary: DefaultSummary,
			steps:   []string{DefaultStep},
		},
		{
			name:    "numbered list only",
			raw:     "1. Do X\n2. Do Y",
			summary: "1. Do X\n2. Do Y",
			steps:   []string{"Do X", "Do Y"},
		},
		{
			name:    "summary then bullets",
			raw:     "Stay calm and observe.\n\n- Breathe slowly\n* Notice the thought\n• Let it pass",
			summary: "Stay calm and observe.",
			steps:   []string{"Breathe slowly", "Notice the thought", "Let it pass"},
		},
		{
			name:    "parenthesis markers",
			raw:     "Summary.\n\n1) First step\n2) Second step",
			summary: "Summary.",
			steps:   []string{"First step", "Second step"},
		},
		{
			name:    "sentences become steps",
			raw:     "Anger passes.\n\nSit quietly for ten minutes each day. Short one. Write down what triggered the feeling!",
			summary: "Anger passes.",
			steps:   []string{"Sit quietly for ten minutes each day.", "Write down what triggered the feeling!"},
		},
		{
			name:    "marathi sentences are measured in characters",
			raw:     "सारांश येथे आहे.\n\nशांत रहा. हे एक खूप मोठे वाक्य आहे जे पायरी बनते.",
			summary: "सारांश येथे आहे.",
			steps:   []string{"हे एक खूप मोठे वाक्य आहे जे पायरी बनते."},
		},
		{
			name:    "short sentences fall back to paragraphs",
			raw:     "Summary here.\n\nOk.\n\nYes.",
			summary: "Summary here.",
			steps:   []string{"Ok.", "Yes."},
		},
		{
			name:    "single paragraph is its own step",
			raw:     "Just be patient with yourself.",
			summary: "Just be patient with yourself.",
			steps:   []string{"Just be patient with yourself."},
		},
		{
			name:    "summary is never overwritten",
			raw:     "First.\n\n- a step\n\nSecond paragraph that is fairly long indeed.",
			summary: "First.",
			steps:   []string{"a step"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := ParseFreeText(tt.raw)
			assert.Equal(t, tt.summary, answer.Summary)
			assert.Equal(t, tt.steps, answer.Steps)
		})
	}
}

func TestParseFreeText_IsStableOnDefaults(t *testing.T) {
	first := ParseFreeText("")
	second := ParseFreeText("")
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Steps)
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two?", "Three"}, splitSentences("One. Two? Three"))
	assert.Equal(t, []string{"v1.2 stays whole."}, splitSentences("v1.2 stays whole."))
}
