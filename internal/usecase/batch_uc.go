// File: internal/usecase/batch_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/adapter"
	"batch-transcriber/internal/domain/ports/repository"
	ucport "batch-transcriber/internal/domain/ports/usecase"
	"batch-transcriber/internal/infra/metrics"
)

var _ ucport.BatchManager = (*BatchUseCase)(nil)

// BatchUseCase owns batch lifecycle: create, pause, resume, delete.
// Dispatching and progress live in their own use cases.
type BatchUseCase struct {
	batches   repository.BatchRepository
	records   repository.TranscriptionRepository
	validator adapter.PathValidator
	dispatch  ucport.Dispatcher
	progress  ucport.ProgressReader
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewBatchUseCase(
	batches repository.BatchRepository,
	records repository.TranscriptionRepository,
	validator adapter.PathValidator,
	dispatch ucport.Dispatcher,
	progress ucport.ProgressReader,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *BatchUseCase {
	bl := logger.With().Str("component", "BatchUseCase").Logger()
	return &BatchUseCase{
		batches:   batches,
		records:   records,
		validator: validator,
		dispatch:  dispatch,
		progress:  progress,
		tm:        tm,
		log:       &bl,
	}
}

// Create validates the request and persists a pending batch. The source
// path is validated before any discovery I/O happens.
func (uc *BatchUseCase) Create(ctx context.Context, p ucport.CreateBatchParams) (*model.Batch, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: batch name is required", domain.ErrInvalidArgument)
	}
	prio, err := model.ParseBatchPriority(p.Priority)
	if err != nil {
		return nil, err
	}
	if err := uc.validator.Validate(p.SourcePath); err != nil {
		return nil, err
	}

	b := model.NewBatch(name, p.Description, p.SourcePath, p.FilePattern, prio, p.CreatedBy, p.NotifyEmails)
	if err := uc.batches.Save(ctx, repository.NoTX, b); err != nil {
		return nil, err
	}
	metrics.IncBatch("created")
	uc.log.Info().Str("batch_id", b.ID).Str("source", b.SourcePath).
		Str("pattern", b.FilePattern).Msg("batch created")
	return b, nil
}

func (uc *BatchUseCase) Get(ctx context.Context, id string) (*model.Batch, error) {
	return uc.batches.FindByID(ctx, repository.NoTX, id)
}

func (uc *BatchUseCase) List(ctx context.Context, f repository.BatchFilter) ([]*model.Batch, int, error) {
	batches, err := uc.batches.List(ctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.batches.Count(ctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// Pause stops a processing batch: queued jobs are removed, started jobs
// finish naturally.
func (uc *BatchUseCase) Pause(ctx context.Context, id string) (*model.Batch, error) {
	b, err := uc.batches.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := b.SetStatus(model.BatchStatusPaused); err != nil {
		return nil, err
	}
	n, err := uc.progress.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.batches.Save(ctx, repository.NoTX, b); err != nil {
		return nil, err
	}
	metrics.IncBatch(string(model.BatchStatusPaused))
	uc.log.Info().Str("batch_id", id).Int("cancelled_jobs", n).Msg("batch paused")
	return b, nil
}

// Resume re-dispatches everything that has no success record yet. Only
// valid while the batch is exactly "paused".
func (uc *BatchUseCase) Resume(ctx context.Context, id string) (*model.Batch, error) {
	b, err := uc.batches.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BatchStatusPaused {
		return nil, fmt.Errorf("%w: cannot resume batch in status %q", domain.ErrInvalidTransition, b.Status)
	}
	n, err := uc.dispatch.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("batch_id", id).Int("dispatched", n).Msg("batch resumed")
	return uc.batches.FindByID(ctx, repository.NoTX, id)
}

// Delete removes the batch and cascades to all its transcription
// records; outstanding queued jobs are cancelled first.
func (uc *BatchUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.batches.FindByID(ctx, repository.NoTX, id); err != nil {
		return err
	}
	if _, err := uc.progress.Cancel(ctx, id); err != nil {
		return err
	}
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.records.DeleteByBatch(ctx, tx, id); err != nil {
			return err
		}
		return uc.batches.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	metrics.IncBatch("deleted")
	uc.log.Info().Str("batch_id", id).Msg("batch deleted")
	return nil
}
