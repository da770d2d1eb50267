package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/adapter"
	qport "batch-transcriber/internal/domain/ports/queue"
	"batch-transcriber/internal/domain/ports/repository"
	"batch-transcriber/internal/infra/metrics"
)

const requesterLabel = "batch-pipeline"

// PollPolicy bounds the worker's own wait loops, independently of the
// job execution timeout the queue enforces.
type PollPolicy struct {
	Interval time.Duration // delay between task status polls
	MaxWait  time.Duration // overall wait budget per task
	Intake   time.Duration // delay between queue intake attempts
}

// Processor drives one job at a time through
// submit -> await completion -> download -> persist, writing exactly
// one TranscriptionRecord per attempt. It never updates batch counters;
// those are derived on demand by the progress aggregator.
type Processor struct {
	queue   qport.JobQueue
	records repository.TranscriptionRepository
	svc     adapter.TranscriptionService
	poll    PollPolicy
	log     *zerolog.Logger
}

func NewProcessor(
	queue qport.JobQueue,
	records repository.TranscriptionRepository,
	svc adapter.TranscriptionService,
	poll PollPolicy,
	logger *zerolog.Logger,
) *Processor {
	pl := logger.With().Str("component", "Processor").Logger()
	return &Processor{queue: queue, records: records, svc: svc, poll: poll, log: &pl}
}

// Start runs the intake loop, handing dequeued jobs to the pool.
// This should be run in a goroutine.
func (p *Processor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("transcription processor started")
	tick := p.poll.Intake
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("transcription processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.ProcessOne(ctx)
				return nil
			})
		}
	}
}

// ProcessOne pulls a single job and runs it to a terminal state.
func (p *Processor) ProcessOne(ctx context.Context) {
	job, err := p.queue.Dequeue(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("dequeue failed")
		return
	}
	if job == nil {
		return // queue empty
	}

	p.log.Info().Str("job_id", job.ID).Str("batch_id", job.BatchID).
		Str("file", job.FilePath).Int("lane", job.Lane).Msg("processing job")

	rec := &model.TranscriptionRecord{
		ID:        uuid.NewString(),
		BatchID:   job.BatchID,
		FilePath:  job.FilePath,
		Status:    model.TranscriptionStatusProcessing,
		StartedAt: time.Now(),
	}

	runErr := p.run(ctx, job, rec)

	done := time.Now()
	rec.CompletedAt = &done
	rec.Elapsed = done.Sub(rec.StartedAt)

	status := "success"
	if runErr != nil {
		status = "failed"
		rec.Status = model.TranscriptionStatusFailed
		rec.SetError(runErr.Error())
		// Queue updates on a background context: the record must land
		// even when the worker's own context is being torn down.
		_ = p.queue.MarkFailed(context.Background(), job.ID, rec.ErrorMessage)
		p.log.Error().Err(runErr).Str("job_id", job.ID).Str("file", job.FilePath).Msg("job failed")
	} else {
		rec.Status = model.TranscriptionStatusSuccess
		_ = p.queue.MarkFinished(context.Background(), job.ID)
	}

	if err := p.records.Save(context.Background(), repository.NoTX, rec); err != nil {
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist transcription record")
	}

	metrics.IncJob(status, job.Lane)
	metrics.ObserveElapsed(status, rec.Elapsed.Seconds())
	p.log.Info().Str("job_id", job.ID).Str("status", status).
		Dur("elapsed", rec.Elapsed).Msg("job finished")
}

func (p *Processor) run(ctx context.Context, job *model.Job, rec *model.TranscriptionRecord) error {
	pinLane(job.Lane)

	if fi, err := os.Stat(job.FilePath); err == nil {
		rec.FileSize = fi.Size()
	}

	title := strings.TrimSuffix(filepath.Base(job.FilePath), filepath.Ext(job.FilePath))
	taskID, err := p.svc.Submit(ctx, adapter.SubmitRequest{
		FilePath:  job.FilePath,
		Title:     title,
		Requester: requesterLabel,
	})
	if err != nil {
		return err
	}
	rec.TaskID = taskID

	if err := p.await(ctx, taskID); err != nil {
		return err
	}

	res, err := p.svc.Result(ctx, taskID)
	if err != nil {
		return err
	}
	rec.Text = res.Text
	rec.Summary = res.Summary
	rec.Language = res.Language
	rec.Confidence = res.Confidence
	rec.AudioDuration = res.AudioDuration
	return nil
}

// await polls task status until completion, failure or the wait budget
// runs out.
func (p *Processor) await(ctx context.Context, taskID string) error {
	deadline := time.Now().Add(p.poll.MaxWait)
	for {
		st, err := p.svc.Status(ctx, taskID)
		if err != nil {
			return err
		}
		switch st {
		case adapter.TaskCompleted:
			return nil
		case adapter.TaskFailed:
			return errors.New("transcription service reported failure")
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: task %s still processing after %s",
				domain.ErrWaitTimeout, taskID, p.poll.MaxWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.poll.Interval):
		}
	}
}

// pinLane constrains the process to the job's assigned GPU. The
// environment variable is process-wide, so the pin is only meaningful
// when at most one job is in flight per process; with a larger pool
// the last writer wins. The assignment is advisory either way, and
// operators match worker count to lane count.
func pinLane(lane int) {
	os.Setenv("CUDA_VISIBLE_DEVICES", strconv.Itoa(lane))
}
