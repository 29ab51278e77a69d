package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

// TextSpan is a half-open [Start, End) range of rune offsets into the global
// text of an extracted document.
type TextSpan struct {
	Start int64
	End   int64
}

// ExtractedPage lists the layout regions of one page. Blocks are only used
// when the paragraphs of the page yield no text.
type ExtractedPage struct {
	PageNumber int
	Paragraphs []TextSpan
	Blocks     []TextSpan
}

// ExtractedDocument is what an extraction backend returns: the whole text of
// the document plus per page spans into it.
type ExtractedDocument struct {
	Text  string
	Pages []ExtractedPage
}

// ExtractionService runs OCR or layout analysis on raw document bytes.
type ExtractionService interface {
	Process(ctx context.Context, content []byte, mimeType string) (*ExtractedDocument, error)
}

type PageExtractor struct {
	service ExtractionService
	logger  *zap.Logger
}

func NewPageExtractor(service ExtractionService, logger *zap.Logger) *PageExtractor {
	return &PageExtractor{service: service, logger: logger}
}

// Extract turns a document buffer into its pages.
func (e *PageExtractor) Extract(ctx context.Context, content []byte, mimeType string) ([]types.Page, error) {
	doc, err := e.service.Process(ctx, content, mimeType)
	if err != nil {
		if types.Classify(err) == types.CodeUnknown {
			return nil, fmt.Errorf("%w: %w", types.ErrExtraction, err)
		}
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: processor returned no document", types.ErrExtraction)
	}

	pages := SlicePages(doc)
	e.logger.Debug("Extracted pages",
		zap.Int("pages", len(pages)),
		zap.Int("textLength", len(doc.Text)),
	)
	return pages, nil
}

// SlicePages cuts the global text of doc into per page text. A document
// without page structure becomes a single page 1 holding the full text.
func SlicePages(doc *ExtractedDocument) []types.Page {
	if len(doc.Pages) == 0 {
		return []types.Page{{PageNumber: 1, Text: doc.Text}}
	}

	text := []rune(doc.Text)
	pages := make([]types.Page, 0, len(doc.Pages))
	for i, p := range doc.Pages {
		pageText := joinSpans(text, p.Paragraphs)
		if strings.TrimSpace(pageText) == "" {
			pageText = joinSpans(text, p.Blocks)
		}
		number := p.PageNumber
		if number <= 0 {
			number = i + 1
		}
		pages = append(pages, types.Page{PageNumber: number, Text: pageText})
	}
	return pages
}

func joinSpans(text []rune, spans []TextSpan) string {
	var sb strings.Builder
	size := int64(len(text))
	for _, span := range spans {
		start, end := clamp(span.Start, size), clamp(span.End, size)
		if start >= end {
			continue
		}
		sb.WriteString(string(text[start:end]))
	}
	return sb.String()
}

func clamp(v, size int64) int64 {
	if v < 0 {
		return 0
	}
	if v > size {
		return size
	}
	return v
}
