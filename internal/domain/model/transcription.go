package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"batch-transcriber/internal/domain"
)

type TranscriptionStatus string

const (
	TranscriptionStatusPending    TranscriptionStatus = "pending"
	TranscriptionStatusProcessing TranscriptionStatus = "processing"
	TranscriptionStatusSuccess    TranscriptionStatus = "success"
	TranscriptionStatusFailed     TranscriptionStatus = "failed"
)

func ParseTranscriptionStatus(s string) (TranscriptionStatus, error) {
	switch TranscriptionStatus(s) {
	case TranscriptionStatusPending, TranscriptionStatusProcessing,
		TranscriptionStatusSuccess, TranscriptionStatusFailed:
		return TranscriptionStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown transcription status %q", domain.ErrInvalidArgument, s)
}

// TranscriptionRecord is the persisted outcome of processing one file.
// FilePath is unique per batch and serves as the checkpoint key.
type TranscriptionRecord struct {
	ID            string
	BatchID       string
	FilePath      string
	FileSize      int64
	AudioDuration time.Duration
	Text          string
	Summary       string
	Language      string
	Confidence    float64
	TaskID        string
	Status        TranscriptionStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	Elapsed       time.Duration
	ErrorMessage  string
}

const maxErrorLen = 500

// SetError stores a bounded-length failure reason. The cut lands on a
// rune boundary so a truncated message stays valid UTF-8.
func (r *TranscriptionRecord) SetError(msg string) {
	if len(msg) > maxErrorLen {
		cut := maxErrorLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	r.ErrorMessage = msg
}
