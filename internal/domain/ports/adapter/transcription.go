// File: internal/domain/ports/adapter/transcription.go
package adapter

import (
	"context"
	"time"
)

type TaskStatus string

const (
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

type SubmitRequest struct {
	FilePath  string
	Title     string
	Requester string
}

type TaskResult struct {
	Text          string
	Summary       string
	Language      string
	Confidence    float64
	AudioDuration time.Duration
}

// TranscriptionService is the request/poll client for the external
// speech-to-text engine.
type TranscriptionService interface {
	// Submit registers a file for transcription. Implementations must
	// fail when the service returns no task identifier.
	Submit(ctx context.Context, req SubmitRequest) (taskID string, err error)
	Status(ctx context.Context, taskID string) (TaskStatus, error)
	Result(ctx context.Context, taskID string) (*TaskResult, error)
	Health(ctx context.Context) bool
}
