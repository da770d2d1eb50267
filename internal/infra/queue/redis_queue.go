package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	qport "batch-transcriber/internal/domain/ports/queue"
)

var _ qport.JobQueue = (*RedisQueue)(nil)

const (
	keyQueued   = "jobs:queued"
	keyStarted  = "jobs:started"
	keyFinished = "jobs:finished"
	keyFailed   = "jobs:failed"
)

func jobKey(id string) string { return "job:" + id }

// RedisQueue keeps one hash per job plus a FIFO list of queued ids and
// one set per terminal/started state. Finished and failed job hashes
// carry a TTL (result/failure retention); set membership is cleaned up
// lazily when a listed hash has expired.
type RedisQueue struct {
	cli *redis.Client
}

func NewRedisQueue(cli *redis.Client) *RedisQueue {
	return &RedisQueue{cli: cli}
}

func (q *RedisQueue) Ping(ctx context.Context) error { return q.cli.Ping(ctx).Err() }

func (q *RedisQueue) Enqueue(ctx context.Context, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	pipe := q.cli.TxPipeline()
	now := time.Now()
	for _, j := range jobs {
		if j.ID == "" {
			j.ID = uuid.NewString()
		}
		j.State = model.JobStateQueued
		j.EnqueuedAt = now
		pipe.HSet(ctx, jobKey(j.ID), jobFields(j))
		pipe.RPush(ctx, keyQueued, j.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: enqueue: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*model.Job, error) {
	id, err := q.cli.LPop(ctx, keyQueued).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dequeue: %v", domain.ErrQueueUnavailable, err)
	}
	now := time.Now()
	pipe := q.cli.TxPipeline()
	pipe.HSet(ctx, jobKey(id), "state", string(model.JobStateStarted), "started_at", now.UnixMilli())
	pipe.SAdd(ctx, keyStarted, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: mark started: %v", domain.ErrQueueUnavailable, err)
	}
	return q.Fetch(ctx, id)
}

func (q *RedisQueue) Fetch(ctx context.Context, id string) (*model.Job, error) {
	fields, err := q.cli.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", domain.ErrQueueUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return jobFromFields(id, fields), nil
}

func (q *RedisQueue) ListByState(ctx context.Context, state model.JobState) ([]*model.Job, error) {
	var ids []string
	var err error
	setKey := ""
	switch state {
	case model.JobStateQueued:
		ids, err = q.cli.LRange(ctx, keyQueued, 0, -1).Result()
	case model.JobStateStarted:
		setKey = keyStarted
	case model.JobStateFinished:
		setKey = keyFinished
	case model.JobStateFailed:
		setKey = keyFailed
	default:
		return nil, fmt.Errorf("%w: unknown job state %q", domain.ErrInvalidArgument, state)
	}
	if setKey != "" {
		ids, err = q.cli.SMembers(ctx, setKey).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", domain.ErrQueueUnavailable, state, err)
	}

	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		fields, err := q.cli.HGetAll(ctx, jobKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", domain.ErrQueueUnavailable, state, err)
		}
		if len(fields) == 0 {
			// Hash expired past its retention window; drop the stale id.
			if setKey != "" {
				q.cli.SRem(ctx, setKey, id)
			}
			continue
		}
		jobs = append(jobs, jobFromFields(id, fields))
	}
	return jobs, nil
}

func (q *RedisQueue) Remove(ctx context.Context, id string) error {
	pipe := q.cli.TxPipeline()
	pipe.LRem(ctx, keyQueued, 1, id)
	pipe.SRem(ctx, keyStarted, id)
	pipe.SRem(ctx, keyFinished, id)
	pipe.SRem(ctx, keyFailed, id)
	pipe.Del(ctx, jobKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: remove: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) MarkFinished(ctx context.Context, id string) error {
	job, err := q.Fetch(ctx, id)
	if err != nil {
		return err
	}
	pipe := q.cli.TxPipeline()
	pipe.SRem(ctx, keyStarted, id)
	pipe.SAdd(ctx, keyFinished, id)
	pipe.HSet(ctx, jobKey(id), "state", string(model.JobStateFinished))
	pipe.PExpire(ctx, jobKey(id), job.ResultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: mark finished: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) MarkFailed(ctx context.Context, id, reason string) error {
	job, err := q.Fetch(ctx, id)
	if err != nil {
		return err
	}
	pipe := q.cli.TxPipeline()
	pipe.SRem(ctx, keyStarted, id)
	pipe.SAdd(ctx, keyFailed, id)
	pipe.HSet(ctx, jobKey(id), "state", string(model.JobStateFailed), "error", reason)
	pipe.PExpire(ctx, jobKey(id), job.FailureTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: mark failed: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

func jobFields(j *model.Job) map[string]interface{} {
	return map[string]interface{}{
		"batch_id":       j.BatchID,
		"file_path":      j.FilePath,
		"lane":           j.Lane,
		"state":          string(j.State),
		"error":          j.Error,
		"enqueued_at":    j.EnqueuedAt.UnixMilli(),
		"timeout_ms":     j.Timeout.Milliseconds(),
		"result_ttl_ms":  j.ResultTTL.Milliseconds(),
		"failure_ttl_ms": j.FailureTTL.Milliseconds(),
	}
}

func jobFromFields(id string, f map[string]string) *model.Job {
	j := &model.Job{
		ID:       id,
		BatchID:  f["batch_id"],
		FilePath: f["file_path"],
		State:    model.JobState(f["state"]),
		Error:    f["error"],
	}
	j.Lane, _ = strconv.Atoi(f["lane"])
	if ms, err := strconv.ParseInt(f["enqueued_at"], 10, 64); err == nil {
		j.EnqueuedAt = time.UnixMilli(ms)
	}
	if ms, err := strconv.ParseInt(f["started_at"], 10, 64); err == nil {
		t := time.UnixMilli(ms)
		j.StartedAt = &t
	}
	if ms, err := strconv.ParseInt(f["timeout_ms"], 10, 64); err == nil {
		j.Timeout = time.Duration(ms) * time.Millisecond
	}
	if ms, err := strconv.ParseInt(f["result_ttl_ms"], 10, 64); err == nil {
		j.ResultTTL = time.Duration(ms) * time.Millisecond
	}
	if ms, err := strconv.ParseInt(f["failure_ttl_ms"], 10, 64); err == nil {
		j.FailureTTL = time.Duration(ms) * time.Millisecond
	}
	return j
}
