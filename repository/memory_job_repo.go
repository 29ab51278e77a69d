package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/tieubaoca/wisdom-rag/types"
)

type memoryJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]types.IngestionJob
}

// NewMemoryJobRepo returns a JobRepo that keeps jobs in process memory.
func NewMemoryJobRepo() JobRepo {
	return &memoryJobRepo{jobs: make(map[string]types.IngestionJob)}
}

func (r *memoryJobRepo) CreateJob(ctx context.Context, job *types.IngestionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memoryJobRepo) GetJob(ctx context.Context, id string) (*types.IngestionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, types.ErrNotFound)
	}
	return &job, nil
}

func (r *memoryJobRepo) UpdateJob(ctx context.Context, job *types.IngestionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, types.ErrNotFound)
	}
	r.jobs[job.ID] = *job
	return nil
}
