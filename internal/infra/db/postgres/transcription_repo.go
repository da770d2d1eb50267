package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/model"
	"batch-transcriber/internal/domain/ports/repository"
)

var _ repository.TranscriptionRepository = (*transcriptionRepo)(nil)

type transcriptionRepo struct{ pool *pgxpool.Pool }

func NewTranscriptionRepo(pool *pgxpool.Pool) *transcriptionRepo {
	return &transcriptionRepo{pool: pool}
}

// Save upserts on (batch_id, file_path) so a resume attempt overwrites
// the previous non-success record for the same file rather than
// accumulating duplicates.
func (r *transcriptionRepo) Save(ctx context.Context, tx repository.Tx, rec *model.TranscriptionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	const q = `
INSERT INTO transcription_records (
  id, batch_id, file_path, file_size, audio_duration_ms, result_text, summary,
  language, confidence, task_id, status, started_at, completed_at, elapsed_ms, error_message
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (batch_id, file_path) DO UPDATE SET
  file_size=$4, audio_duration_ms=$5, result_text=$6, summary=$7, language=$8,
  confidence=$9, task_id=$10, status=$11, started_at=$12, completed_at=$13,
  elapsed_ms=$14, error_message=$15;`

	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.BatchID, rec.FilePath, rec.FileSize, rec.AudioDuration.Milliseconds(),
		rec.Text, rec.Summary, rec.Language, rec.Confidence, rec.TaskID, rec.Status,
		rec.StartedAt, rec.CompletedAt, rec.Elapsed.Milliseconds(), rec.ErrorMessage)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transcriptionRepo) SuccessPaths(ctx context.Context, tx repository.Tx, batchID string) ([]string, error) {
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT file_path FROM transcription_records WHERE batch_id=$1 AND status=$2;`,
		batchID, model.TranscriptionStatusSuccess)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (r *transcriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx, batchID string) (map[model.TranscriptionStatus]int, error) {
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT status, COUNT(*) FROM transcription_records WHERE batch_id=$1 GROUP BY status;`,
		batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.TranscriptionStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.TranscriptionStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *transcriptionRepo) AvgElapsed(ctx context.Context, tx repository.Tx, batchID string) (time.Duration, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT COALESCE(AVG(elapsed_ms), 0) FROM transcription_records WHERE batch_id=$1 AND status=$2;`,
		batchID, model.TranscriptionStatusSuccess)
	if err != nil {
		return 0, err
	}
	var avgMs float64
	if err := row.Scan(&avgMs); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return time.Duration(avgMs) * time.Millisecond, nil
}

func (r *transcriptionRepo) DeleteByBatch(ctx context.Context, tx repository.Tx, batchID string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM transcription_records WHERE batch_id=$1;`, batchID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
