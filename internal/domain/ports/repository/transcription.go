package repository

import (
	"context"
	"time"

	"batch-transcriber/internal/domain/model"
)

type TranscriptionRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.TranscriptionRecord) error
	// SuccessPaths returns the file paths of all records with status
	// "success" for the batch. This is the checkpoint set.
	SuccessPaths(ctx context.Context, tx Tx, batchID string) ([]string, error)
	CountByStatus(ctx context.Context, tx Tx, batchID string) (map[model.TranscriptionStatus]int, error)
	AvgElapsed(ctx context.Context, tx Tx, batchID string) (time.Duration, error)
	DeleteByBatch(ctx context.Context, tx Tx, batchID string) error
}
