package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain/model"
	qport "batch-transcriber/internal/domain/ports/queue"
)

// Reaper periodically fails started jobs that exceeded their execution
// timeout. A worker crash leaves its job parked in "started"; without
// the reaper such jobs would stay invisible to progress forever.
type Reaper struct {
	interval time.Duration
	queue    qport.JobQueue
	log      *zerolog.Logger
}

func NewReaper(interval time.Duration, queue qport.JobQueue, logger *zerolog.Logger) *Reaper {
	rl := logger.With().Str("component", "Reaper").Logger()
	return &Reaper{interval: interval, queue: queue, log: &rl}
}

func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info().Msg("starting job reaper")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping job reaper")
			return ctx.Err()
		case <-ticker.C:
			n, err := r.sweep(ctx)
			if err != nil {
				r.log.Error().Err(err).Msg("reaper sweep error")
			}
			if n > 0 {
				r.log.Warn().Int("count", n).Msg("reaped overdue jobs")
			}
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) (int, error) {
	started, err := r.queue.ListByState(ctx, model.JobStateStarted)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	reaped := 0
	for _, j := range started {
		if j.StartedAt == nil || j.Timeout <= 0 {
			continue
		}
		if now.Sub(*j.StartedAt) <= j.Timeout {
			continue
		}
		if err := r.queue.MarkFailed(ctx, j.ID, "execution timeout exceeded"); err != nil {
			r.log.Error().Err(err).Str("job_id", j.ID).Msg("failed to reap job")
			continue
		}
		reaped++
	}
	return reaped, nil
}
