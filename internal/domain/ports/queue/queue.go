package queue

import (
	"context"

	"batch-transcriber/internal/domain/model"
)

// JobQueue is the distributed queue owning job lifecycle for the
// duration of the retention windows. The queue itself provides mutual
// exclusion per job: Dequeue hands each job to exactly one worker.
type JobQueue interface {
	// Enqueue is all-or-nothing: on error no job from the slice may be
	// reported as enqueued.
	Enqueue(ctx context.Context, jobs []*model.Job) error
	// Dequeue pops the oldest queued job and marks it started.
	// Returns (nil, nil) when the queue is empty.
	Dequeue(ctx context.Context) (*model.Job, error)
	ListByState(ctx context.Context, state model.JobState) ([]*model.Job, error)
	Fetch(ctx context.Context, id string) (*model.Job, error)
	// Remove deletes a queued job; it is how cancellation works.
	Remove(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
	Ping(ctx context.Context) error
}
