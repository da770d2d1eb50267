// File: internal/usecase/progress_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain/model"
	qport "batch-transcriber/internal/domain/ports/queue"
	"batch-transcriber/internal/domain/ports/repository"
	ucport "batch-transcriber/internal/domain/ports/usecase"
	"batch-transcriber/internal/infra/metrics"
)

var _ ucport.ProgressReader = (*ProgressUseCase)(nil)

// ProgressUseCase derives per-batch progress from queue state plus the
// batch store instead of having workers increment counters. The derived
// result is cached briefly; the cache is injected, never global.
type ProgressUseCase struct {
	batches repository.BatchRepository
	records repository.TranscriptionRepository
	queue   qport.JobQueue
	cache   repository.Cache
	ttl     time.Duration
	log     *zerolog.Logger
}

func NewProgressUseCase(
	batches repository.BatchRepository,
	records repository.TranscriptionRepository,
	queue qport.JobQueue,
	cache repository.Cache,
	ttl time.Duration,
	logger *zerolog.Logger,
) *ProgressUseCase {
	pl := logger.With().Str("component", "ProgressUseCase").Logger()
	return &ProgressUseCase{
		batches: batches,
		records: records,
		queue:   queue,
		cache:   cache,
		ttl:     ttl,
		log:     &pl,
	}
}

func progressKey(batchID string) string { return "progress:" + batchID }

func (uc *ProgressUseCase) Progress(ctx context.Context, batchID string) (*ucport.Progress, error) {
	raw, err := uc.cache.GetOrCompute(ctx, progressKey(batchID), uc.ttl, func(ctx context.Context) ([]byte, error) {
		p, err := uc.compute(ctx, batchID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	})
	if err != nil {
		return nil, err
	}
	var p ucport.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (uc *ProgressUseCase) compute(ctx context.Context, batchID string) (*ucport.Progress, error) {
	b, err := uc.batches.FindByID(ctx, repository.NoTX, batchID)
	if err != nil {
		return nil, err
	}

	p := &ucport.Progress{BatchID: batchID, Total: b.TotalFiles}

	// The queue scan is O(live queue depth), not O(batch size).
	for _, state := range []model.JobState{
		model.JobStateQueued, model.JobStateStarted, model.JobStateFinished, model.JobStateFailed,
	} {
		jobs, err := uc.queue.ListByState(ctx, state)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, j := range jobs {
			if j.BatchID == batchID {
				n++
			}
		}
		switch state {
		case model.JobStateQueued:
			p.Queued = n
		case model.JobStateStarted:
			p.Started = n
		case model.JobStateFinished:
			p.Finished = n
		case model.JobStateFailed:
			p.Failed = n
		}
	}

	counts, err := uc.records.CountByStatus(ctx, repository.NoTX, batchID)
	if err != nil {
		return nil, err
	}
	p.Completed = counts[model.TranscriptionStatusSuccess]
	p.FailedFiles = counts[model.TranscriptionStatusFailed]

	avg, err := uc.records.AvgElapsed(ctx, repository.NoTX, batchID)
	if err != nil {
		return nil, err
	}
	p.AvgElapsed = avg.Seconds()

	if p.Total > 0 {
		p.Percent = float64(p.Finished) / float64(p.Total) * 100
	}

	uc.finalize(ctx, b, p, avg)
	return p, nil
}

// finalize opportunistically completes a processing batch once nothing
// is in flight and every file has a terminal record, and refreshes the
// read-mostly counter columns.
func (uc *ProgressUseCase) finalize(ctx context.Context, b *model.Batch, p *ucport.Progress, avg time.Duration) {
	if b.Status != model.BatchStatusProcessing {
		return
	}
	b.CompletedFiles = p.Completed
	b.FailedFiles = p.FailedFiles
	b.AvgDuration = avg

	done := p.Total > 0 && p.Queued == 0 && p.Started == 0 &&
		p.Completed+p.FailedFiles >= p.Total
	if done {
		if err := b.SetStatus(model.BatchStatusCompleted); err == nil {
			metrics.IncBatch(string(model.BatchStatusCompleted))
			uc.log.Info().Str("batch_id", b.ID).Int("completed", p.Completed).
				Int("failed", p.FailedFiles).Msg("batch completed")
		}
	}
	if err := uc.batches.Save(ctx, repository.NoTX, b); err != nil {
		uc.log.Error().Err(err).Str("batch_id", b.ID).Msg("failed to refresh batch counters")
	}
}

// Cancel removes the batch's queued jobs from the queue. Started jobs
// are left to finish naturally; interrupting a mid-flight external call
// buys nothing.
func (uc *ProgressUseCase) Cancel(ctx context.Context, batchID string) (int, error) {
	queued, err := uc.queue.ListByState(ctx, model.JobStateQueued)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, j := range queued {
		if j.BatchID != batchID {
			continue
		}
		if err := uc.queue.Remove(ctx, j.ID); err != nil {
			uc.log.Error().Err(err).Str("job_id", j.ID).Msg("failed to remove queued job")
			continue
		}
		n++
	}
	_ = uc.cache.Invalidate(ctx, progressKey(batchID))
	metrics.AddCancelled(n)
	uc.log.Info().Str("batch_id", batchID).Int("cancelled", n).Msg("queued jobs cancelled")
	return n, nil
}
