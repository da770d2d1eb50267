// File: internal/infra/db/postgres/batch_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/repository"
)

var _ repository.BatchRepository = (*batchRepo)(nil)

type batchRepo struct{ pool *pgxpool.Pool }

func NewBatchRepo(pool *pgxpool.Pool) *batchRepo {
	return &batchRepo{pool: pool}
}

const batchColumns = `id, name, description, source_path, file_pattern, total_files, completed_files, failed_files, avg_elapsed_ms, priority, status, created_by, notify_emails, error_message, created_at, updated_at, started_at, completed_at`

func (r *batchRepo) Save(ctx context.Context, tx repository.Tx, b *model.Batch) error {
	b.UpdatedAt = time.Now()
	const q = `
INSERT INTO batches (` + batchColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, source_path=$4, file_pattern=$5, total_files=$6,
  completed_files=$7, failed_files=$8, avg_elapsed_ms=$9, priority=$10,
  status=$11, notify_emails=$13, error_message=$14, updated_at=$16,
  started_at=$17, completed_at=$18;`

	_, err := execSQL(ctx, r.pool, tx, q,
		b.ID, b.Name, b.Description, b.SourcePath, b.FilePattern, b.TotalFiles,
		b.CompletedFiles, b.FailedFiles, b.AvgDuration.Milliseconds(), b.Priority,
		b.Status, b.CreatedBy, b.NotifyEmails, b.ErrorMessage, b.CreatedAt,
		b.UpdatedAt, b.StartedAt, b.CompletedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *batchRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Batch, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+batchColumns+` FROM batches WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanBatch(row)
}

func (r *batchRepo) List(ctx context.Context, tx repository.Tx, f repository.BatchFilter) ([]*model.Batch, error) {
	where, args := batchWhere(f)
	order := batchOrder(f)
	q := `SELECT ` + batchColumns + ` FROM batches` + where + order
	n := len(args)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", n+1)
		n++
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", n+1)
	}
	q += ";"

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *batchRepo) Count(ctx context.Context, tx repository.Tx, f repository.BatchFilter) (int, error) {
	where, args := batchWhere(f)
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM batches`+where+`;`, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *batchRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM batches WHERE id=$1;`, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func batchWhere(f repository.BatchFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.Priority != nil {
		args = append(args, *f.Priority)
		conds = append(conds, fmt.Sprintf("priority=$%d", len(args)))
	}
	if f.NameContains != "" {
		args = append(args, "%"+f.NameContains+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func batchOrder(f repository.BatchFilter) string {
	col := "created_at"
	switch f.SortBy {
	case "name":
		col = "name"
	case "priority":
		col = "priority"
	case "", "created_at":
	default:
		// unknown sort keys fall back to creation time
	}
	dir := " ASC"
	if f.SortDesc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir
}

func scanBatch(row pgx.Row) (*model.Batch, error) {
	b := &model.Batch{}
	var avgMs int64
	var prio, status string
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.SourcePath, &b.FilePattern,
		&b.TotalFiles, &b.CompletedFiles, &b.FailedFiles, &avgMs, &prio, &status,
		&b.CreatedBy, &b.NotifyEmails, &b.ErrorMessage, &b.CreatedAt, &b.UpdatedAt,
		&b.StartedAt, &b.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	b.AvgDuration = time.Duration(avgMs) * time.Millisecond
	b.Priority = model.BatchPriority(prio)
	b.Status = model.BatchStatus(status)
	return b, nil
}
