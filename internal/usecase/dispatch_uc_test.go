package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
)

func testDispatchUC(batches *memBatchRepo, records *memTranscriptionRepo, q *memQueue, files []string, lanes int) *DispatchUseCase {
	nop := zerolog.Nop()
	return NewDispatchUseCase(batches, records, q, &stubDiscoverer{files: files}, DispatchConfig{
		Lanes:      lanes,
		JobTimeout: 4 * time.Hour,
		ResultTTL:  24 * time.Hour,
		FailureTTL: 7 * 24 * time.Hour,
	}, &nop)
}

func pendingBatch(t *testing.T, batches *memBatchRepo) *model.Batch {
	t.Helper()
	b := model.NewBatch("nightly", "", "/data/audio", "*.mp3", model.PriorityNormal, "op", nil)
	if err := batches.Save(context.Background(), nil, b); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDispatch_RoundRobinLanes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	batches := newMemBatchRepo()
	records := newMemTranscriptionRepo()
	q := newMemQueue()
	files := []string{
		"/data/audio/a.mp3", "/data/audio/b.mp3", "/data/audio/c.mp3",
		"/data/audio/d.mp3", "/data/audio/e.mp3",
	}
	uc := testDispatchUC(batches, records, q, files, 2)
	b := pendingBatch(t, batches)

	n, err := uc.Run(ctx, b.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 5 {
		t.Fatalf("dispatched %d jobs, want 5", n)
	}

	queued, _ := q.ListByState(ctx, model.JobStateQueued)
	lanes := make([]int, 0, len(queued))
	for _, j := range queued {
		lanes = append(lanes, j.Lane)
	}
	if !reflect.DeepEqual(lanes, []int{0, 1, 0, 1, 0}) {
		t.Fatalf("lane sequence = %v, want [0 1 0 1 0]", lanes)
	}

	got, _ := batches.FindByID(ctx, nil, b.ID)
	if got.Status != model.BatchStatusProcessing {
		t.Fatalf("batch status = %s, want processing", got.Status)
	}
	if got.TotalFiles != 5 {
		t.Fatalf("total files = %d, want 5", got.TotalFiles)
	}
}

func TestDispatch_JobPolicies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	batches := newMemBatchRepo()
	q := newMemQueue()
	uc := testDispatchUC(batches, newMemTranscriptionRepo(), q, []string{"/data/audio/a.mp3"}, 2)
	b := pendingBatch(t, batches)

	if _, err := uc.Run(ctx, b.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	queued, _ := q.ListByState(ctx, model.JobStateQueued)
	if len(queued) != 1 {
		t.Fatalf("expected 1 queued job, got %d", len(queued))
	}
	j := queued[0]
	if j.Timeout != 4*time.Hour {
		t.Errorf("job timeout = %s, want 4h", j.Timeout)
	}
	if j.ResultTTL != 24*time.Hour {
		t.Errorf("result ttl = %s, want 24h", j.ResultTTL)
	}
	if j.FailureTTL != 7*24*time.Hour {
		t.Errorf("failure ttl = %s, want 168h", j.FailureTTL)
	}
	if j.BatchID != b.ID || j.FilePath != "/data/audio/a.mp3" {
		t.Errorf("job metadata = %s/%s", j.BatchID, j.FilePath)
	}
}

func TestDispatch_ResumeSkipsSuccesses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	batches := newMemBatchRepo()
	records := newMemTranscriptionRepo()
	q := newMemQueue()
	files := []string{
		"/data/audio/a.mp3", "/data/audio/b.mp3",
		"/data/audio/c.mp3", "/data/audio/d.mp3",
	}
	uc := testDispatchUC(batches, records, q, files, 2)

	b := pendingBatch(t, batches)
	b.TotalFiles = 4
	if err := b.SetStatus(model.BatchStatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := b.SetStatus(model.BatchStatusPaused); err != nil {
		t.Fatal(err)
	}
	if err := batches.Save(ctx, nil, b); err != nil {
		t.Fatal(err)
	}

	// 3 successes and 1 failure: only the failed file is retried.
	for i, p := range files[:3] {
		_ = records.Save(ctx, nil, &model.TranscriptionRecord{
			BatchID: b.ID, FilePath: p, Status: model.TranscriptionStatusSuccess,
			Elapsed: time.Duration(i+1) * time.Second,
		})
	}
	_ = records.Save(ctx, nil, &model.TranscriptionRecord{
		BatchID: b.ID, FilePath: files[3], Status: model.TranscriptionStatusFailed,
	})

	n, err := uc.Run(ctx, b.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 1 {
		t.Fatalf("dispatched %d jobs on resume, want 1", n)
	}
	queued, _ := q.ListByState(ctx, model.JobStateQueued)
	if len(queued) != 1 || queued[0].FilePath != files[3] {
		t.Fatalf("expected only %s redispatched, got %+v", files[3], queued)
	}

	got, _ := batches.FindByID(ctx, nil, b.ID)
	if got.TotalFiles != 4 {
		t.Fatalf("resume must not shrink total files: got %d", got.TotalFiles)
	}
	if got.Status != model.BatchStatusProcessing {
		t.Fatalf("batch status = %s, want processing", got.Status)
	}
}

func TestDispatch_QueueDownLeavesBatchPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	batches := newMemBatchRepo()
	q := newMemQueue()
	q.enqueueErr = domain.ErrQueueUnavailable
	uc := testDispatchUC(batches, newMemTranscriptionRepo(), q, []string{"/data/audio/a.mp3"}, 2)
	b := pendingBatch(t, batches)

	_, err := uc.Run(ctx, b.ID)
	if !errors.Is(err, domain.ErrQueueUnavailable) {
		t.Fatalf("expected ErrQueueUnavailable, got %v", err)
	}
	got, _ := batches.FindByID(ctx, nil, b.ID)
	if got.Status != model.BatchStatusPending {
		t.Fatalf("batch status = %s, want pending after failed dispatch", got.Status)
	}
}

func TestDispatch_RunRejectsTerminalBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	batches := newMemBatchRepo()
	uc := testDispatchUC(batches, newMemTranscriptionRepo(), newMemQueue(), nil, 2)
	b := pendingBatch(t, batches)
	b.Status = model.BatchStatusCompleted
	_ = batches.Save(ctx, nil, b)

	if _, err := uc.Run(ctx, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRemaining_CheckpointCorrectness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	records := newMemTranscriptionRepo()
	uc := testDispatchUC(newMemBatchRepo(), records, newMemQueue(), nil, 2)

	discovered := []string{"/a/1.mp3", "/a/2.mp3", "/a/3.mp3", "/a/4.mp3", "/a/5.mp3"}
	for _, p := range []string{"/a/2.mp3", "/a/4.mp3"} {
		_ = records.Save(ctx, nil, &model.TranscriptionRecord{
			BatchID: "batch-1", FilePath: p, Status: model.TranscriptionStatusSuccess,
		})
	}
	// a processing record is not a checkpoint
	_ = records.Save(ctx, nil, &model.TranscriptionRecord{
		BatchID: "batch-1", FilePath: "/a/5.mp3", Status: model.TranscriptionStatusProcessing,
	})

	want := []string{"/a/1.mp3", "/a/3.mp3", "/a/5.mp3"}
	first, err := uc.Remaining(ctx, "batch-1", discovered)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("Remaining = %v, want %v", first, want)
	}

	// idempotent: repeating without new successes yields the same set
	second, err := uc.Remaining(ctx, "batch-1", discovered)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Remaining is not idempotent: %v vs %v", first, second)
	}
}
