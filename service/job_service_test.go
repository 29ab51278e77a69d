package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/wisdom-rag/repository"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

type fakeIngester struct {
	result types.IngestResult
	err    error
}

func (f *fakeIngester) Ingest(ctx context.Context, doc types.Document) (types.IngestResult, error) {
	return f.result, f.err
}

func fastJobConfig() JobConfig {
	return JobConfig{
		PollMaxAttempts:  5,
		PollInitialDelay: time.Millisecond,
		PollMaxDelay:     2 * time.Millisecond,
		PollTimeout:      time.Second,
	}
}

func TestJobService_SubmitReady(t *testing.T) {
	repo := repository.NewMemoryJobRepo()
	s := NewJobService(repo, &fakeIngester{result: types.IngestResult{ChunksIndexed: 3}}, fastJobConfig(), zap.NewNop())

	job, err := s.Submit(context.Background(), pdfDocument("a.pdf"))

	require.NoError(t, err)
	assert.Equal(t, types.JOB_STATUS_READY, job.Status)
	assert.Equal(t, 3, job.ChunksIndexed)
	assert.Equal(t, 1, job.Attempts)

	stored, err := s.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JOB_STATUS_READY, stored.Status)
	assert.Equal(t, "a.pdf", stored.FileName)
}

func TestJobService_SubmitFailed(t *testing.T) {
	repo := repository.NewMemoryJobRepo()
	ingestErr := types.NewInvalidInputError("Unsupported file type: text/plain")
	s := NewJobService(repo, &fakeIngester{err: ingestErr}, fastJobConfig(), zap.NewNop())

	job, err := s.Submit(context.Background(), pdfDocument("a.txt"))

	assert.ErrorIs(t, err, types.ErrInvalidInput)
	require.NotNil(t, job)
	assert.Equal(t, types.JOB_STATUS_FAILED, job.Status)

	stored, getErr := s.Get(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, types.JOB_STATUS_FAILED, stored.Status)
	assert.Equal(t, "Unsupported file type: text/plain", stored.Message)
}

func TestJobService_WaitReturnsTerminalJob(t *testing.T) {
	repo := repository.NewMemoryJobRepo()
	s := NewJobService(repo, &fakeIngester{}, fastJobConfig(), zap.NewNop())
	job := &types.IngestionJob{ID: "job-1", Status: types.JOB_STATUS_PROCESSING}
	require.NoError(t, repo.CreateJob(context.Background(), job))

	go func() {
		time.Sleep(2 * time.Millisecond)
		_ = repo.UpdateJob(context.Background(), &types.IngestionJob{ID: "job-1", Status: types.JOB_STATUS_READY})
	}()

	cfg := fastJobConfig()
	cfg.PollMaxAttempts = 1000
	s.cfg = cfg
	got, err := s.Wait(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, types.JOB_STATUS_READY, got.Status)
}

func TestJobService_WaitTimesOut(t *testing.T) {
	repo := repository.NewMemoryJobRepo()
	s := NewJobService(repo, &fakeIngester{}, fastJobConfig(), zap.NewNop())
	require.NoError(t, repo.CreateJob(context.Background(), &types.IngestionJob{ID: "stuck", Status: types.JOB_STATUS_PENDING}))

	_, err := s.Wait(context.Background(), "stuck")

	assert.True(t, errors.Is(err, types.ErrProcessingTimeout))
}

func TestJobService_WaitUnknownJob(t *testing.T) {
	s := NewJobService(repository.NewMemoryJobRepo(), &fakeIngester{}, fastJobConfig(), zap.NewNop())

	_, err := s.Wait(context.Background(), "missing")

	assert.True(t, errors.Is(err, types.ErrNotFound))
}
