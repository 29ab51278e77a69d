package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tieubaoca/wisdom-rag/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

const JOB_COLLECTION = "ingestion_jobs"

type JobRepo interface {
	CreateJob(ctx context.Context, job *types.IngestionJob) error
	GetJob(ctx context.Context, id string) (*types.IngestionJob, error)
	UpdateJob(ctx context.Context, job *types.IngestionJob) error
}

type jobRepo struct {
	collection *mongo.Collection
}

func NewJobRepo(ctx context.Context, db *mongo.Database, logger *zap.Logger) (JobRepo, error) {
	// check if collection does not exist, create indexes with it
	collectionNames, err := db.ListCollectionNames(ctx, bson.M{"name": JOB_COLLECTION})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	collection := db.Collection(JOB_COLLECTION)
	if len(collectionNames) == 0 {
		indexes := []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "created_at", Value: -1},
				},
			}}

		if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
			logger.Warn("Error creating job indexes", zap.Error(err))
		}
	}

	return &jobRepo{
		collection: collection,
	}, nil
}

func (r *jobRepo) CreateJob(ctx context.Context, job *types.IngestionJob) error {
	_, err := r.collection.InsertOne(ctx, job)
	return err
}

func (r *jobRepo) GetJob(ctx context.Context, id string) (*types.IngestionJob, error) {
	var job types.IngestionJob
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("job %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) UpdateJob(ctx context.Context, job *types.IngestionJob) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s: %w", job.ID, types.ErrNotFound)
	}
	return nil
}
