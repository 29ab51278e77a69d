package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/tieubaoca/wisdom-rag/config"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
	documentai "google.golang.org/api/documentai/v1"
	"google.golang.org/api/option"
)

// DocumentAIService sends documents to a Google Document AI processor.
type DocumentAIService struct {
	cfg    config.DocumentAIConfig
	opts   []option.ClientOption
	logger *zap.Logger

	mu  sync.Mutex
	svc *documentai.Service
}

// NewDocumentAIService does not dial anything. The client is created on the
// first Process call so a missing configuration only fails extraction.
func NewDocumentAIService(cfg config.DocumentAIConfig, logger *zap.Logger, opts ...option.ClientOption) *DocumentAIService {
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	return &DocumentAIService{cfg: cfg, opts: opts, logger: logger}
}

// Configured reports whether the processor identity is known.
func (s *DocumentAIService) Configured() bool {
	return s.cfg.ProjectID != "" && s.cfg.ProcessorID != "" && s.cfg.Location != ""
}

func (s *DocumentAIService) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", s.cfg.ProjectID, s.cfg.Location, s.cfg.ProcessorID)
}

func (s *DocumentAIService) service(ctx context.Context) (*documentai.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc != nil {
		return s.svc, nil
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("https://%s-documentai.googleapis.com/", s.cfg.Location)),
	}
	if s.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.CredentialsFile))
	}
	opts = append(opts, s.opts...)

	svc, err := documentai.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create document ai client: %w", types.ErrConfiguration, err)
	}
	s.svc = svc
	return svc, nil
}

func (s *DocumentAIService) Process(ctx context.Context, content []byte, mimeType string) (*ExtractedDocument, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: Google Document AI configuration missing (GOOGLE_PROJECT_ID, GOOGLE_DOCUMENT_AI_PROCESSOR_ID)", types.ErrConfiguration)
	}
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	req := &documentai.GoogleCloudDocumentaiV1ProcessRequest{
		RawDocument: &documentai.GoogleCloudDocumentaiV1RawDocument{
			Content:  base64.StdEncoding.EncodeToString(content),
			MimeType: mimeType,
		},
	}
	resp, err := svc.Projects.Locations.Processors.Process(s.processorName(), req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: document ai process: %w", types.ErrExtraction, err)
	}
	if resp == nil || resp.Document == nil {
		return nil, fmt.Errorf("%w: Document AI processing failed", types.ErrExtraction)
	}

	doc := &ExtractedDocument{Text: resp.Document.Text}
	for _, page := range resp.Document.Pages {
		if page == nil {
			continue
		}
		extracted := ExtractedPage{PageNumber: int(page.PageNumber)}
		for _, p := range page.Paragraphs {
			if p != nil {
				extracted.Paragraphs = append(extracted.Paragraphs, layoutSpans(p.Layout)...)
			}
		}
		for _, b := range page.Blocks {
			if b != nil {
				extracted.Blocks = append(extracted.Blocks, layoutSpans(b.Layout)...)
			}
		}
		doc.Pages = append(doc.Pages, extracted)
	}

	s.logger.Info("Document AI processed document",
		zap.String("mimeType", mimeType),
		zap.Int("pages", len(doc.Pages)),
	)
	return doc, nil
}

func layoutSpans(layout *documentai.GoogleCloudDocumentaiV1DocumentPageLayout) []TextSpan {
	if layout == nil || layout.TextAnchor == nil {
		return nil
	}
	spans := make([]TextSpan, 0, len(layout.TextAnchor.TextSegments))
	for _, seg := range layout.TextAnchor.TextSegments {
		if seg == nil {
			continue
		}
		spans = append(spans, TextSpan{Start: seg.StartIndex, End: seg.EndIndex})
	}
	return spans
}
