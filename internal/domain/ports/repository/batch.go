package repository

import (
	"context"

	"batch-transcriber/internal/domain/model"
)

// BatchFilter narrows List/Count. Nil fields are not applied.
type BatchFilter struct {
	Status       *model.BatchStatus
	Priority     *model.BatchPriority
	NameContains string
	SortBy       string // created_at | name | priority
	SortDesc     bool
	Offset       int
	Limit        int
}

type BatchRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Batch) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Batch, error)
	List(ctx context.Context, tx Tx, f BatchFilter) ([]*model.Batch, error)
	Count(ctx context.Context, tx Tx, f BatchFilter) (int, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
