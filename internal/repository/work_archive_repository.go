package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkArchiveRepository persists submitted exam works into PostgreSQL. The
// archive is the durable per-record copy of the examWorks document: the
// document itself stays the primary store, but its whole-document append can
// lose a record under concurrent submission, and the archive cannot.
type WorkArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewWorkArchiveRepository creates a new WorkArchiveRepository.
func NewWorkArchiveRepository(pool *pgxpool.Pool) *WorkArchiveRepository {
	return &WorkArchiveRepository{pool: pool}
}

// InsertBatch bulk-inserts a batch of works via COPY. A duplicate attempt id
// anywhere in the batch fails the whole COPY; callers fall back to Insert.
func (r *WorkArchiveRepository) InsertBatch(ctx context.Context, works []model.ExamAttempt) error {
	rows := make([][]interface{}, 0, len(works))
	for i := range works {
		record, err := json.Marshal(works[i])
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		rows = append(rows, []interface{}{
			works[i].ID, works[i].Institute, works[i].Discipline,
			record, time.UnixMilli(works[i].SubmittedAt),
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"exam_works_archive"},
		[]string{"attempt_id", "institute", "discipline", "record", "submitted_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// Insert archives one work. Re-inserting an already archived attempt is a
// no-op, so requeued items stay idempotent.
func (r *WorkArchiveRepository) Insert(ctx context.Context, work *model.ExamAttempt) error {
	record, err := json.Marshal(work)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_works_archive (attempt_id, institute, discipline, record, submitted_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)
		 ON CONFLICT (attempt_id) DO NOTHING`,
		work.ID, work.Institute, work.Discipline, record, time.UnixMilli(work.SubmittedAt),
	)
	return err
}

// CountByInstitute reports how many archived works each institute has.
func (r *WorkArchiveRepository) CountByInstitute(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT institute, COUNT(*) FROM exam_works_archive GROUP BY institute`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var institute string
		var n int64
		if err := rows.Scan(&institute, &n); err != nil {
			return nil, err
		}
		counts[institute] = n
	}
	return counts, rows.Err()
}
