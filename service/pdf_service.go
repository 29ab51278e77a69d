package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

const MimeTypePDF = "application/pdf"

// PDFService reads the embedded text layer of a PDF. It is the extraction
// backend used when Document AI is not configured; scanned pages without a
// text layer yield no text.
type PDFService struct {
	logger *zap.Logger
}

func NewPDFService(logger *zap.Logger) *PDFService {
	return &PDFService{logger: logger}
}

// Process builds a global text with one span per page so that the page
// extractor can slice it the same way as a Document AI result.
func (s *PDFService) Process(ctx context.Context, content []byte, mimeType string) (*ExtractedDocument, error) {
	if mimeType != MimeTypePDF {
		return nil, fmt.Errorf("%w: local text extraction only supports %s, got %s", types.ErrExtraction, MimeTypePDF, mimeType)
	}
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", types.ErrExtraction, err)
	}

	totalPages := reader.NumPage()
	s.logger.Debug("Reading pdf text layer", zap.Int("totalPages", totalPages))

	var text strings.Builder
	doc := &ExtractedDocument{}
	offset := int64(0)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip failed pages instead of failing the whole document
			s.logger.Warn("Failed to extract text from page", zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		pageText = cleanPDFText(pageText)
		if pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
			offset++
		}
		text.WriteString(pageText)
		end := offset + int64(utf8.RuneCountInString(pageText))
		doc.Pages = append(doc.Pages, ExtractedPage{
			PageNumber: pageNum,
			Paragraphs: []TextSpan{{Start: offset, End: end}},
		})
		offset = end
	}
	doc.Text = text.String()
	return doc, nil
}

// cleanPDFText drops control characters and glyph noise common in PDF text
// layers.
func cleanPDFText(text string) string {
	replacer := strings.NewReplacer(
		"\u0000", "", // Null character
		"\ufffd", "", // Unicode replacement character
		"\u001b", "", // Escape character
		"\r", "",
		"\f", "\n",
		"\uf8ff", "", // Apple logo
		"\u2021", "", // Double dagger
		"\u2020", "", // Dagger
	)
	return strings.TrimSpace(replacer.Replace(text))
}
