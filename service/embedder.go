package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// EmbeddingService maps text to a vector. Implementations call an external
// model and do not retry.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type EmbedderConfig struct {
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
}

// Embedder wraps an EmbeddingService with throttling, bounded retries and
// vector validation. It never returns an empty vector.
type Embedder struct {
	service    EmbeddingService
	limiter    *rate.Limiter
	maxRetries int
	delay      func(attempt int) time.Duration
	logger     *zap.Logger
}

func NewEmbedder(service EmbeddingService, cfg EmbedderConfig, logger *zap.Logger) *Embedder {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Embedder{
		service:    service,
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: maxRetries,
		delay:      retryDelay,
		logger:     logger,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", types.ErrEmbeddingService, ctx.Err())
			case <-time.After(e.delay(attempt - 1)):
			}
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrEmbeddingService, err)
		}

		vector, err := e.service.Embed(ctx, text)
		if err != nil {
			lastErr = err
			e.logger.Warn("Embedding attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("%w: service returned an empty vector", types.ErrEmbeddingService)
		}
		return vector, nil
	}
	return nil, fmt.Errorf("%w: %w", types.ErrEmbeddingService, lastErr)
}

// EmbedBatch embeds texts in order and fails on the first error.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// retryDelay is an exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}
