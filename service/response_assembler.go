package service

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tieubaoca/wisdom-rag/types"
)

const (
	DefaultConfidenceThreshold = 0.5
	UnknownPlaceholder         = "Unknown"
)

var chapterPattern = regexp.MustCompile(`(?i)(?:chapter|प्रकरण)\s+(\d+)`)

type AssemblerConfig struct {
	ConfidenceThreshold float32
	DefaultBook         string
	DefaultChapter      string
	DocumentsBaseURL    string
}

// ResponseAssembler combines a synthesized answer with its citation and
// confidence into the result returned to callers.
type ResponseAssembler struct {
	cfg   AssemblerConfig
	newID func() string
}

func NewResponseAssembler(cfg AssemblerConfig) *ResponseAssembler {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.DefaultBook == "" {
		cfg.DefaultBook = UnknownPlaceholder
	}
	if cfg.DefaultChapter == "" {
		cfg.DefaultChapter = UnknownPlaceholder
	}
	return &ResponseAssembler{cfg: cfg, newID: uuid.NewString}
}

// Assemble builds the result for answer. retrieved must be ordered by
// descending score; its first element is the primary citation.
func (a *ResponseAssembler) Assemble(answer types.Answer, retrieved []types.RetrievalResult) types.AnswerResult {
	return types.AnswerResult{
		ID:         a.newID(),
		Answer:     answer,
		Source:     a.citation(retrieved),
		Confidence: a.confidence(retrieved),
	}
}

// confidence counts the passages scoring above the threshold. This is a
// heuristic for how much of the context matched, not a probability.
func (a *ResponseAssembler) confidence(retrieved []types.RetrievalResult) types.Confidence {
	matched := 0
	for _, r := range retrieved {
		if r.Score > a.cfg.ConfidenceThreshold {
			matched++
		}
	}
	return types.Confidence{MatchedPrinciples: matched, TotalPrinciples: len(retrieved)}
}

func (a *ResponseAssembler) citation(retrieved []types.RetrievalResult) types.Source {
	book := a.cfg.DefaultBook
	chapter := a.cfg.DefaultChapter
	if len(retrieved) == 0 {
		return types.Source{Book: &book, Chapter: &chapter}
	}

	top := retrieved[0].Payload
	if name := BookTitle(top.Source); name != "" {
		book = name
	}
	if m := chapterPattern.FindStringSubmatch(top.Text); m != nil {
		chapter = "Chapter " + m[1]
	}

	source := types.Source{Book: &book, Chapter: &chapter}
	if top.Page > 0 {
		page := top.Page
		source.Page = &page
	}
	if a.cfg.DocumentsBaseURL != "" && top.Source != "" {
		pdfURL := strings.TrimRight(a.cfg.DocumentsBaseURL, "/") + "/" + url.PathEscape(top.Source)
		source.PDFURL = &pdfURL
	}
	return source
}

// BookTitle derives a display title from a document file name.
func BookTitle(fileName string) string {
	name := fileName
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-len(".pdf")]
	}
	return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
}
