package usecase

import (
	"context"

	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/repository"
)

type CreateBatchParams struct {
	Name         string
	Description  string
	SourcePath   string
	FilePattern  string
	Priority     string
	CreatedBy    string
	NotifyEmails []string
}

type BatchManager interface {
	Create(ctx context.Context, p CreateBatchParams) (*model.Batch, error)
	Get(ctx context.Context, id string) (*model.Batch, error)
	List(ctx context.Context, f repository.BatchFilter) ([]*model.Batch, int, error)
	Pause(ctx context.Context, id string) (*model.Batch, error)
	Resume(ctx context.Context, id string) (*model.Batch, error)
	Delete(ctx context.Context, id string) error
}

type Dispatcher interface {
	// Run discovers, subtracts the checkpoint set and enqueues the
	// remaining files. Returns the number of jobs dispatched.
	Run(ctx context.Context, batchID string) (int, error)
}

type Progress struct {
	BatchID     string  `json:"batch_id"`
	Total       int     `json:"total"`
	Queued      int     `json:"queued"`
	Started     int     `json:"started"`
	Finished    int     `json:"finished"`
	Failed      int     `json:"failed"`
	Percent     float64 `json:"percent"`
	Completed   int     `json:"completed_files"`
	FailedFiles int     `json:"failed_files"`
	AvgElapsed  float64 `json:"avg_elapsed_seconds"`
}

type ProgressReader interface {
	Progress(ctx context.Context, batchID string) (*Progress, error)
	// Cancel removes queued (not-yet-started) jobs of the batch and
	// returns how many were actually removed.
	Cancel(ctx context.Context, batchID string) (int, error)
}
