package model

import "time"

type JobState string

const (
	JobStateQueued   JobState = "queued"
	JobStateStarted  JobState = "started"
	JobStateFinished JobState = "finished"
	JobStateFailed   JobState = "failed"
)

// Job is the ephemeral, queue-tracked unit of work for one file. It is
// not the source of truth; the TranscriptionRecord is.
type Job struct {
	ID         string
	BatchID    string
	FilePath   string
	Lane       int
	Timeout    time.Duration
	ResultTTL  time.Duration
	FailureTTL time.Duration
	State      JobState
	Error      string
	EnqueuedAt time.Time
	StartedAt  *time.Time
}

// AssignLane maps a file's position in the dispatch order to a GPU lane.
// The assignment is a pure function of the index so re-dispatching the
// same order yields the same lanes.
func AssignLane(index, lanes int) int {
	if lanes <= 0 {
		lanes = 1
	}
	return index % lanes
}
