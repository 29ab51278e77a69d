package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/wisdom-rag/repository"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

// Ingester is the part of the pipeline a job drives.
type Ingester interface {
	Ingest(ctx context.Context, doc types.Document) (types.IngestResult, error)
}

type JobConfig struct {
	PollMaxAttempts  int
	PollInitialDelay time.Duration
	PollMaxDelay     time.Duration
	PollTimeout      time.Duration
}

// JobService records each ingestion as a job moving through
// pending -> processing -> ready|failed.
type JobService struct {
	repo     repository.JobRepo
	ingester Ingester
	cfg      JobConfig
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time
}

func NewJobService(repo repository.JobRepo, ingester Ingester, cfg JobConfig, logger *zap.Logger) *JobService {
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 30
	}
	if cfg.PollInitialDelay <= 0 {
		cfg.PollInitialDelay = 500 * time.Millisecond
	}
	if cfg.PollMaxDelay <= 0 {
		cfg.PollMaxDelay = 5 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Minute
	}
	return &JobService{
		repo:     repo,
		ingester: ingester,
		cfg:      cfg,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Submit ingests doc under a new job and returns the job in its final state.
// The returned error is the ingestion error, if any; the job is still
// returned so callers can report its id.
func (s *JobService) Submit(ctx context.Context, doc types.Document) (*types.IngestionJob, error) {
	now := s.now().Unix()
	job := &types.IngestionJob{
		ID:       s.newID(),
		FileName: doc.Name,
		Status:   types.JOB_STATUS_PENDING,
		CreateAt: now,
		UpdateAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.transition(ctx, job, types.JOB_STATUS_PROCESSING); err != nil {
		return job, err
	}
	job.Attempts++

	result, ingestErr := s.ingester.Ingest(ctx, doc)
	if ingestErr != nil {
		job.Message = types.UserMessage(ingestErr)
		s.logger.Error("Ingestion failed",
			zap.String("jobId", job.ID),
			zap.String("fileName", doc.Name),
			zap.String("code", string(types.Classify(ingestErr))),
			zap.Error(ingestErr),
		)
		// The job record must settle even when the request context is gone
		if err := s.transition(context.WithoutCancel(ctx), job, types.JOB_STATUS_FAILED); err != nil {
			s.logger.Error("Error marking job failed", zap.String("jobId", job.ID), zap.Error(err))
		}
		return job, ingestErr
	}

	job.ChunksIndexed = result.ChunksIndexed
	if err := s.transition(ctx, job, types.JOB_STATUS_READY); err != nil {
		return job, err
	}
	s.logger.Info("Ingestion job ready",
		zap.String("jobId", job.ID),
		zap.Int("chunks", job.ChunksIndexed),
	)
	return job, nil
}

func (s *JobService) transition(ctx context.Context, job *types.IngestionJob, status string) error {
	if !types.CanTransition(job.Status, status) {
		return fmt.Errorf("job %s: invalid transition %s -> %s", job.ID, job.Status, status)
	}
	job.Status = status
	job.UpdateAt = s.now().Unix()
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobService) Get(ctx context.Context, id string) (*types.IngestionJob, error) {
	return s.repo.GetJob(ctx, id)
}

// Wait polls the job until it is ready or failed. Polling backs off
// exponentially and gives up with ErrProcessingTimeout after the configured
// attempts or timeout.
func (s *JobService) Wait(ctx context.Context, id string) (*types.IngestionJob, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	delay := s.cfg.PollInitialDelay
	for attempt := 1; attempt <= s.cfg.PollMaxAttempts; attempt++ {
		job, err := s.repo.GetJob(ctx, id)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, err
		}
		if job.IsTerminal() {
			return job, nil
		}
		if attempt == s.cfg.PollMaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: job %s still %s", types.ErrProcessingTimeout, id, job.Status)
		case <-timer.C:
		}

		delay *= 2
		if delay > s.cfg.PollMaxDelay {
			delay = s.cfg.PollMaxDelay
		}
	}
	return nil, fmt.Errorf("%w: job %s did not finish", types.ErrProcessingTimeout, id)
}
