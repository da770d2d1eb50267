package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"batch-transcriber/internal/domain"
)

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusPaused     BatchStatus = "paused"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// ParseBatchStatus validates an operator-supplied status string.
func ParseBatchStatus(s string) (BatchStatus, error) {
	switch BatchStatus(s) {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusPaused,
		BatchStatusCompleted, BatchStatusFailed:
		return BatchStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown batch status %q", domain.ErrInvalidArgument, s)
}

// Terminal reports whether no further transition is allowed.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// Transition checks that moving from s to next is a legal step of the
// batch state machine. Per-file failures never pass through here; only
// batch-level moves do.
func (s BatchStatus) Transition(next BatchStatus) error {
	allowed := false
	switch s {
	case BatchStatusPending:
		allowed = next == BatchStatusProcessing || next == BatchStatusFailed
	case BatchStatusProcessing:
		allowed = next == BatchStatusPaused || next == BatchStatusCompleted || next == BatchStatusFailed
	case BatchStatusPaused:
		allowed = next == BatchStatusProcessing
	case BatchStatusCompleted, BatchStatusFailed:
		// terminal
	default:
		return fmt.Errorf("%w: unknown batch status %q", domain.ErrInvalidArgument, s)
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s, next)
	}
	return nil
}

type BatchPriority string

const (
	PriorityLow    BatchPriority = "low"
	PriorityNormal BatchPriority = "normal"
	PriorityHigh   BatchPriority = "high"
	PriorityUrgent BatchPriority = "urgent"
)

func ParseBatchPriority(s string) (BatchPriority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	switch BatchPriority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return BatchPriority(s), nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidArgument, s)
}

// Batch is one operator-submitted unit of audio files to transcribe.
type Batch struct {
	ID             string
	Name           string
	Description    string
	SourcePath     string
	FilePattern    string
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int
	AvgDuration    time.Duration
	Priority       BatchPriority
	Status         BatchStatus
	CreatedBy      string
	NotifyEmails   []string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewBatch builds a pending batch with a creation-time-sortable ID.
func NewBatch(name, description, source, pattern string, prio BatchPriority, createdBy string, emails []string) *Batch {
	now := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return &Batch{
		ID:           ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		Name:         name,
		Description:  description,
		SourcePath:   source,
		FilePattern:  pattern,
		Priority:     prio,
		Status:       BatchStatusPending,
		CreatedBy:    createdBy,
		NotifyEmails: emails,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetStatus applies a validated transition and stamps timestamps.
func (b *Batch) SetStatus(next BatchStatus) error {
	if err := b.Status.Transition(next); err != nil {
		return err
	}
	now := time.Now()
	b.Status = next
	b.UpdatedAt = now
	switch next {
	case BatchStatusProcessing:
		if b.StartedAt == nil {
			b.StartedAt = &now
		}
	case BatchStatusCompleted, BatchStatusFailed:
		b.CompletedAt = &now
	}
	return nil
}
