package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tieubaoca/wisdom-rag/types"
)

const (
	DefaultSummary = "Wisdom guidance based on the available teachings."
	DefaultStep    = "Reflect on the situation with calm awareness."

	// Sentences at or below this many characters are treated as noise
	minSentenceStepLength = 20
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	listLine       = regexp.MustCompile(`(?m)^\s*(\d+[.)]|[-*•])\s`)
	listMarker     = regexp.MustCompile(`^\s*(\d+[.)]|[-*•])\s+`)
)

// ParseFreeText turns unstructured model output into a summary and steps.
// The result always has a summary and at least one step.
func ParseFreeText(raw string) types.Answer {
	var paragraphs []string
	for _, p := range paragraphSplit.Split(raw, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return types.Answer{Summary: DefaultSummary, Steps: []string{DefaultStep}}
	}

	var summary string
	var steps []string
	for _, p := range paragraphs {
		switch {
		case listLine.MatchString(p):
			for _, line := range strings.Split(p, "\n") {
				if step := strings.TrimSpace(listMarker.ReplaceAllString(line, "")); step != "" {
					steps = append(steps, step)
				}
			}
		case summary == "":
			summary = p
		case len(steps) == 0:
			for _, sentence := range splitSentences(p) {
				if utf8.RuneCountInString(sentence) > minSentenceStepLength {
					steps = append(steps, sentence)
				}
			}
		}
	}

	if summary == "" {
		summary = paragraphs[0]
	}
	if len(steps) == 0 && len(paragraphs) > 1 {
		steps = append(steps, paragraphs[1:]...)
	}
	if len(steps) == 0 {
		steps = []string{summary}
	}
	return types.Answer{Summary: summary, Steps: steps}
}

// splitSentences splits after '.', '!' or '?' when followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if isSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
