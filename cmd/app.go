/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/tieubaoca/wisdom-rag/config"
	"github.com/tieubaoca/wisdom-rag/database"
	"github.com/tieubaoca/wisdom-rag/repository"
	"github.com/tieubaoca/wisdom-rag/service"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

const defaultGeminiEmbedModel = "text-embedding-004"

// app holds the wired pipeline shared by the server and the CLI commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	rag    *service.RAGService
	index  *service.VectorIndex
	jobs   *service.JobService
	files  *service.FileService

	closers []func(context.Context) error
}

func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("Error closing resource", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	var gemini *service.GeminiService
	if cfg.Generation.Provider == "gemini" || cfg.Embedding.Provider == "gemini" {
		embedModel := cfg.Embedding.Model
		if cfg.Embedding.Provider != "gemini" || strings.HasPrefix(embedModel, "text-embedding-3") {
			embedModel = defaultGeminiEmbedModel
		}
		var err error
		gemini, err = service.NewGeminiService(cfg.Generation.GeminiKeys, cfg.Generation.Model, embedModel, cfg.Generation.Temperature, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return gemini.Close() })
	}

	var embedding service.EmbeddingService
	switch cfg.Embedding.Provider {
	case "sbert":
		embedding = service.NewSBERTEmbedder(cfg.Embedding.SBERTURL, cfg.Embedding.Timeout)
	case "openai":
		baseURL := cfg.Embedding.BaseURL
		if baseURL == "" {
			baseURL = cfg.Generation.BaseURL
		}
		embedding = service.NewOpenAIEmbedder(baseURL, cfg.Embedding.APIKey, cfg.Embedding.Model)
	case "gemini":
		embedding = gemini
	}

	var generation service.GenerationService
	switch cfg.Generation.Provider {
	case "openai":
		generation = service.NewOpenAIService(cfg.Generation.BaseURL, cfg.Generation.APIKey, cfg.Generation.Model, cfg.Generation.Temperature, logger)
	case "gemini":
		generation = gemini
	}

	store, err := newVectorStore(cfg.VectorStore, logger)
	if err != nil {
		return nil, err
	}

	extraction, chunkType := newExtractionService(cfg, logger)

	embedder := service.NewEmbedder(embedding, service.EmbedderConfig{
		MaxRetries:        cfg.Embedding.MaxRetries,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Burst:             cfg.Embedding.Burst,
	}, logger)
	a.index = service.NewVectorIndex(store, embedding, service.VectorIndexConfig{
		Collection:       cfg.VectorStore.Collection,
		DefaultDimension: cfg.VectorStore.DefaultDimension,
		Metric:           cfg.VectorStore.Metric,
	}, logger)

	chunker := service.NewChunker(cfg.Chunker)
	logger.Debug("Chunker configured",
		zap.Int("maxWords", chunker.MaxWords()),
		zap.Int("minWords", chunker.MinWords()),
	)

	a.rag = service.NewRAGService(
		service.NewPageExtractor(extraction, logger),
		chunker,
		embedder,
		a.index,
		service.NewAnswerSynthesizer(generation, logger),
		service.NewResponseAssembler(service.AssemblerConfig{
			ConfidenceThreshold: cfg.Answer.ConfidenceThreshold,
			DefaultBook:         cfg.Answer.DefaultBook,
			DefaultChapter:      cfg.Answer.DefaultChapter,
			DocumentsBaseURL:    cfg.DocumentsBaseURL,
		}),
		service.RAGConfig{
			TopK:           cfg.Answer.TopK,
			MaxUploadBytes: cfg.MaxUploadBytes,
			ChunkType:      chunkType,
		},
		logger,
	)

	jobRepo, err := a.newJobRepo(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.jobs = service.NewJobService(jobRepo, a.rag, service.JobConfig{
		PollMaxAttempts:  cfg.Jobs.PollMaxAttempts,
		PollInitialDelay: cfg.Jobs.PollInitialDelay,
		PollMaxDelay:     cfg.Jobs.PollMaxDelay,
		PollTimeout:      cfg.Jobs.PollTimeout,
	}, logger)

	a.files, err = service.NewFileService(cfg.UploadDir, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func newVectorStore(cfg config.VectorStoreConfig, logger *zap.Logger) (database.VectorStore, error) {
	switch cfg.Provider {
	case "weaviate":
		store, err := database.NewWeaviateStore(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrConfiguration, err)
		}
		return store, nil
	case "qdrant":
		return database.NewQdrantStore(cfg, logger), nil
	case "memory":
		logger.Warn("Using in-memory vector store, indexed documents are lost on exit")
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store provider %q", types.ErrConfiguration, cfg.Provider)
	}
}

// newExtractionService prefers Document AI and falls back to the PDF text
// layer when it is not configured.
func newExtractionService(cfg *config.Config, logger *zap.Logger) (service.ExtractionService, string) {
	if cfg.Extraction.Provider == "documentai" {
		documentAI := service.NewDocumentAIService(cfg.Extraction.DocumentAI, logger)
		if documentAI.Configured() {
			return documentAI, types.ChunkTypeDocumentAI
		}
		logger.Warn("Document AI is not configured, extracting PDF text layer instead")
	}
	return service.NewPDFService(logger), types.ChunkTypePDFText
}

func (a *app) newJobRepo(ctx context.Context) (repository.JobRepo, error) {
	if a.cfg.JobStore.Provider != "mongo" {
		return repository.NewMemoryJobRepo(), nil
	}
	client, db, err := database.NewMongoDatabase(ctx, a.cfg.JobStore)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Disconnect)
	return repository.NewJobRepo(ctx, db, a.logger)
}
