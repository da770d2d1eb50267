package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPathRejected       = errors.New("source path rejected")
	ErrQueueUnavailable   = errors.New("job queue unavailable")
	ErrNoTaskID           = errors.New("no task id returned")
	ErrWaitTimeout        = errors.New("timed out waiting for transcription")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context for query")
)
