// File: internal/usecase/dispatch_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/adapter"
	qport "batch-transcriber/internal/domain/ports/queue"
	"batch-transcriber/internal/domain/ports/repository"
	ucport "batch-transcriber/internal/domain/ports/usecase"
	"batch-transcriber/internal/infra/logging"
	"batch-transcriber/internal/infra/metrics"
)

var _ ucport.Dispatcher = (*DispatchUseCase)(nil)

type DispatchConfig struct {
	Lanes      int
	JobTimeout time.Duration
	ResultTTL  time.Duration
	FailureTTL time.Duration
}

// DispatchUseCase turns a batch into queued per-file jobs: discover,
// subtract the checkpoint set, assign lanes round-robin, enqueue.
type DispatchUseCase struct {
	batches    repository.BatchRepository
	records    repository.TranscriptionRepository
	queue      qport.JobQueue
	discoverer adapter.FileDiscoverer
	cfg        DispatchConfig
	log        *zerolog.Logger
}

func NewDispatchUseCase(
	batches repository.BatchRepository,
	records repository.TranscriptionRepository,
	queue qport.JobQueue,
	discoverer adapter.FileDiscoverer,
	cfg DispatchConfig,
	logger *zerolog.Logger,
) *DispatchUseCase {
	dl := logger.With().Str("component", "DispatchUseCase").Logger()
	if cfg.Lanes <= 0 {
		cfg.Lanes = 2
	}
	return &DispatchUseCase{
		batches:    batches,
		records:    records,
		queue:      queue,
		discoverer: discoverer,
		cfg:        cfg,
		log:        &dl,
	}
}

// Run dispatches all not-yet-successful files of the batch. Valid from
// "pending" (first run) and "paused" (resume). Enqueue failure leaves
// the batch in its pre-processing status so the operator can retry.
func (uc *DispatchUseCase) Run(ctx context.Context, batchID string) (int, error) {
	defer logging.TraceDuration(uc.log, "DispatchUseCase.Run")()

	b, err := uc.batches.FindByID(ctx, repository.NoTX, batchID)
	if err != nil {
		return 0, err
	}
	if err := b.Status.Transition(model.BatchStatusProcessing); err != nil {
		return 0, err
	}

	files, err := uc.discoverer.Discover(ctx, b.SourcePath, b.FilePattern)
	if err != nil {
		return 0, err
	}
	metrics.AddFilesDiscovered(len(files))

	remaining, err := uc.Remaining(ctx, batchID, files)
	if err != nil {
		return 0, err
	}

	jobs := uc.buildJobs(batchID, remaining)
	if err := uc.queue.Enqueue(ctx, jobs); err != nil {
		return 0, err
	}

	// A resume re-scan must never shrink the already-counted set.
	if len(files) > b.TotalFiles {
		b.TotalFiles = len(files)
	}
	if err := b.SetStatus(model.BatchStatusProcessing); err != nil {
		return 0, err
	}
	if err := uc.batches.Save(ctx, repository.NoTX, b); err != nil {
		// Jobs are already in flight; this is a batch-level fault.
		uc.markFault(ctx, b, fmt.Sprintf("dispatched %d jobs but failed to persist batch: %v", len(jobs), err))
		return len(jobs), err
	}

	metrics.IncBatch(string(model.BatchStatusProcessing))
	uc.log.Info().Str("batch_id", batchID).Int("discovered", len(files)).
		Int("dispatched", len(jobs)).Int("lanes", uc.cfg.Lanes).Msg("batch dispatched")
	return len(jobs), nil
}

// Remaining subtracts the checkpoint set (file paths with a "success"
// record) from the discovered list, preserving discovery order. Failed
// and partially-processed files are retried; only success checkpoints.
func (uc *DispatchUseCase) Remaining(ctx context.Context, batchID string, discovered []string) ([]string, error) {
	done, err := uc.records.SuccessPaths(ctx, repository.NoTX, batchID)
	if err != nil {
		return nil, err
	}
	completed := make(map[string]struct{}, len(done))
	for _, p := range done {
		completed[p] = struct{}{}
	}
	remaining := make([]string, 0, len(discovered))
	for _, p := range discovered {
		if _, ok := completed[p]; !ok {
			remaining = append(remaining, p)
		}
	}
	return remaining, nil
}

func (uc *DispatchUseCase) buildJobs(batchID string, paths []string) []*model.Job {
	jobs := make([]*model.Job, 0, len(paths))
	for i, p := range paths {
		jobs = append(jobs, &model.Job{
			BatchID:    batchID,
			FilePath:   p,
			Lane:       model.AssignLane(i, uc.cfg.Lanes),
			Timeout:    uc.cfg.JobTimeout,
			ResultTTL:  uc.cfg.ResultTTL,
			FailureTTL: uc.cfg.FailureTTL,
		})
	}
	return jobs
}

// markFault records a batch-level failure with its message. Distinct
// from per-file failures, which only accumulate in failed counts.
func (uc *DispatchUseCase) markFault(ctx context.Context, b *model.Batch, msg string) {
	if err := b.SetStatus(model.BatchStatusFailed); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		uc.log.Error().Err(err).Str("batch_id", b.ID).Msg("could not mark batch failed")
		return
	}
	b.ErrorMessage = msg
	if err := uc.batches.Save(ctx, repository.NoTX, b); err != nil {
		uc.log.Error().Err(err).Str("batch_id", b.ID).Msg("could not persist batch fault")
	}
	metrics.IncBatch(string(model.BatchStatusFailed))
}
