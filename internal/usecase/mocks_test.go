// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/repository"
)

//
// ---------------- in-memory infra mocks (repos/queue/cache) ----------------
//

type memBatchRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Batch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{byID: map[string]*model.Batch{}}
}

func (m *memBatchRepo) Save(ctx context.Context, tx repository.Tx, b *model.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBatchRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBatchRepo) List(ctx context.Context, tx repository.Tx, f repository.BatchFilter) ([]*model.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Batch
	for _, b := range m.byID {
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.Priority != nil && b.Priority != *f.Priority {
			continue
		}
		if f.NameContains != "" && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(f.NameContains)) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Offset > 0 && f.Offset < len(out) {
		out = out[f.Offset:]
	} else if f.Offset >= len(out) {
		out = nil
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memBatchRepo) Count(ctx context.Context, tx repository.Tx, f repository.BatchFilter) (int, error) {
	all, err := m.List(ctx, tx, repository.BatchFilter{Status: f.Status, Priority: f.Priority, NameContains: f.NameContains})
	return len(all), err
}

func (m *memBatchRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memTranscriptionRepo struct {
	mu   sync.Mutex
	recs map[string]*model.TranscriptionRecord // key: batchID + "|" + filePath
}

func newMemTranscriptionRepo() *memTranscriptionRepo {
	return &memTranscriptionRepo{recs: map[string]*model.TranscriptionRecord{}}
}

func recKey(batchID, filePath string) string { return batchID + "|" + filePath }

func (m *memTranscriptionRepo) Save(ctx context.Context, tx repository.Tx, rec *model.TranscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.recs[recKey(rec.BatchID, rec.FilePath)] = &cp
	return nil
}

func (m *memTranscriptionRepo) SuccessPaths(ctx context.Context, tx repository.Tx, batchID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for _, r := range m.recs {
		if r.BatchID == batchID && r.Status == model.TranscriptionStatusSuccess {
			paths = append(paths, r.FilePath)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *memTranscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx, batchID string) (map[model.TranscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.TranscriptionStatus]int{}
	for _, r := range m.recs {
		if r.BatchID == batchID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (m *memTranscriptionRepo) AvgElapsed(ctx context.Context, tx repository.Tx, batchID string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum time.Duration
	n := 0
	for _, r := range m.recs {
		if r.BatchID == batchID && r.Status == model.TranscriptionStatusSuccess {
			sum += r.Elapsed
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / time.Duration(n), nil
}

func (m *memTranscriptionRepo) DeleteByBatch(ctx context.Context, tx repository.Tx, batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, r := range m.recs {
		if r.BatchID == batchID {
			delete(m.recs, k)
		}
	}
	return nil
}

// memQueue is an in-memory JobQueue preserving enqueue order.
type memQueue struct {
	mu         sync.Mutex
	jobs       map[string]*model.Job
	order      []string
	enqueueErr error
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]*model.Job{}}
}

func (q *memQueue) Enqueue(ctx context.Context, jobs []*model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	for _, j := range jobs {
		if j.ID == "" {
			j.ID = uuid.NewString()
		}
		j.State = model.JobStateQueued
		j.EnqueuedAt = time.Now()
		cp := *j
		q.jobs[j.ID] = &cp
		q.order = append(q.order, j.ID)
	}
	return nil
}

func (q *memQueue) Dequeue(ctx context.Context) (*model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.order {
		j, ok := q.jobs[id]
		if !ok || j.State != model.JobStateQueued {
			continue
		}
		now := time.Now()
		j.State = model.JobStateStarted
		j.StartedAt = &now
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (q *memQueue) ListByState(ctx context.Context, state model.JobState) ([]*model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*model.Job
	for _, id := range q.order {
		j, ok := q.jobs[id]
		if ok && j.State == state {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (q *memQueue) Fetch(ctx context.Context, id string) (*model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (q *memQueue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(q.jobs, id)
	return nil
}

func (q *memQueue) MarkFinished(ctx context.Context, id string) error {
	return q.setState(id, model.JobStateFinished, "")
}

func (q *memQueue) MarkFailed(ctx context.Context, id, reason string) error {
	return q.setState(id, model.JobStateFailed, reason)
}

func (q *memQueue) setState(id string, state model.JobState, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.State = state
	j.Error = reason
	return nil
}

func (q *memQueue) Ping(ctx context.Context) error { return nil }

// passCache computes on every call; caching behavior is covered by the
// redis package tests.
type passCache struct{}

func (passCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	return compute(ctx)
}

func (passCache) Invalidate(ctx context.Context, key string) error { return nil }

type stubDiscoverer struct {
	files []string
	calls int
}

func (d *stubDiscoverer) Discover(ctx context.Context, source, pattern string) ([]string, error) {
	d.calls++
	return append([]string(nil), d.files...), nil
}

type stubTxManager struct{}

func (stubTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
