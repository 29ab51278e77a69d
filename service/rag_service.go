package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tieubaoca/wisdom-rag/logger"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

const (
	DefaultTopK           = 5
	DefaultMaxUploadBytes = 10 << 20
)

var SupportedMimeTypes = map[string]bool{
	MimeTypePDF:  true,
	"image/png":  true,
	"image/jpeg": true,
	"image/tiff": true,
}

type RAGConfig struct {
	TopK           int
	MaxUploadBytes int64
	ChunkType      string
}

// RAGService wires ingestion and question answering together.
type RAGService struct {
	extractor   *PageExtractor
	chunker     *Chunker
	embedder    *Embedder
	index       *VectorIndex
	retriever   *Retriever
	synthesizer *AnswerSynthesizer
	assembler   *ResponseAssembler
	cfg         RAGConfig
	logger      *zap.Logger
}

func NewRAGService(
	extractor *PageExtractor,
	chunker *Chunker,
	embedder *Embedder,
	index *VectorIndex,
	synthesizer *AnswerSynthesizer,
	assembler *ResponseAssembler,
	cfg RAGConfig,
	logger *zap.Logger,
) *RAGService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ChunkType == "" {
		cfg.ChunkType = types.ChunkTypeDocumentAI
	}
	return &RAGService{
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		retriever:   NewRetriever(embedder, index, logger),
		synthesizer: synthesizer,
		assembler:   assembler,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *RAGService) Index() *VectorIndex { return s.index }

// Ingest extracts, chunks, embeds and indexes doc. Nothing is written to the
// index unless every chunk was embedded.
func (s *RAGService) Ingest(ctx context.Context, doc types.Document) (types.IngestResult, error) {
	if err := s.validateDocument(doc); err != nil {
		return types.IngestResult{}, err
	}

	pages, err := s.extractor.Extract(ctx, doc.Content, doc.MimeType)
	if err != nil {
		return types.IngestResult{}, fmt.Errorf("extract %s: %w", doc.Name, err)
	}

	chunks := s.chunker.Chunk(pages, doc.Name, s.cfg.ChunkType)
	if len(chunks) == 0 {
		return types.IngestResult{}, fmt.Errorf("%w: No text extracted from document", types.ErrNoContent)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return types.IngestResult{}, fmt.Errorf("embed %s: %w", doc.Name, err)
	}

	points := make([]types.Point, len(chunks))
	for i, c := range chunks {
		points[i] = types.Point{ID: c.ID, Vector: vectors[i], Payload: c.Payload()}
	}
	if err := s.index.Upsert(ctx, points); err != nil {
		return types.IngestResult{}, fmt.Errorf("index %s: %w", doc.Name, err)
	}

	s.logger.Info("Document ingested",
		zap.String("fileName", doc.Name),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)
	return types.IngestResult{FileName: doc.Name, ChunksIndexed: len(chunks)}, nil
}

func (s *RAGService) validateDocument(doc types.Document) error {
	if len(doc.Content) == 0 {
		return types.NewInvalidInputError("No file uploaded")
	}
	if !SupportedMimeTypes[doc.MimeType] {
		return types.NewInvalidInputError(fmt.Sprintf("Unsupported file type: %s", doc.MimeType))
	}
	if int64(len(doc.Content)) > s.cfg.MaxUploadBytes {
		return types.NewInvalidInputError(fmt.Sprintf("File exceeds the %d MB limit", s.cfg.MaxUploadBytes>>20))
	}
	return nil
}

// Answer retrieves the passages closest to query and synthesizes a cited
// answer from them. An empty language means English.
func (s *RAGService) Answer(ctx context.Context, query, language string) (types.AnswerResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.AnswerResult{}, types.NewInvalidInputError("Message is required")
	}
	if language == "" {
		language = types.LanguageEnglish
	}
	if !types.IsSupportedLanguage(language) {
		return types.AnswerResult{}, types.NewInvalidInputError(`Language must be "en" or "mr"`)
	}

	retrieved, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		return types.AnswerResult{}, fmt.Errorf("retrieve: %w", err)
	}

	answer, err := s.synthesizer.Synthesize(ctx, query, retrieved, language)
	if err != nil {
		return types.AnswerResult{}, fmt.Errorf("synthesize: %w", err)
	}

	result := s.assembler.Assemble(answer, retrieved)
	s.logger.Info("Answered query",
		zap.String("query", logger.Preview(query, 80)),
		zap.String("language", language),
		zap.Int("retrieved", len(retrieved)),
		zap.Int("matched", result.Confidence.MatchedPrinciples),
	)
	return result, nil
}

// Chat answers a chat request. Only the wisdom mode is supported.
func (s *RAGService) Chat(ctx context.Context, req types.ChatRequest) (types.AnswerResult, error) {
	if req.Mode != "" && req.Mode != types.ChatModeWisdom {
		return types.AnswerResult{}, types.NewInvalidInputError(`Mode must be "wisdom"`)
	}
	return s.Answer(ctx, req.Message, req.Language)
}
