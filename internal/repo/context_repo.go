package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Ensemble/internal/domain"
)

// ContextRepo — репозиторий истории раундов.
type ContextRepo struct {
	pool *pgxpool.Pool
}

// NewContextRepo создаёт новый ContextRepo.
func NewContextRepo(pool *pgxpool.Pool) *ContextRepo {
	return &ContextRepo{pool: pool}
}

// EnsureSchema создаёт таблицу истории, если её ещё нет.
func (r *ContextRepo) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS context_rounds (
			id          UUID PRIMARY KEY,
			kind        TEXT NOT NULL,
			state       TEXT NOT NULL,
			discovered  INT NOT NULL,
			completed   TEXT[] NOT NULL,
			error       TEXT,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_context_rounds_kind
			ON context_rounds (kind, started_at DESC);
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Insert сохраняет запись о завершённом раунде.
func (r *ContextRepo) Insert(ctx context.Context, rec *domain.ContextRecord) error {
	completed := make([]string, len(rec.Completed))
	for i, id := range rec.Completed {
		completed[i] = id.String()
	}

	query := `
		INSERT INTO context_rounds (id, kind, state, discovered, completed, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Kind,
		rec.State,
		rec.Discovered,
		completed,
		nullString(rec.Error),
		rec.StartedAt,
		rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// GetByID возвращает запись раунда по идентификатору.
func (r *ContextRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContextRecord, error) {
	query := `
		SELECT id, kind, state, discovered, completed, error, started_at, finished_at
		FROM context_rounds
		WHERE id = $1
	`
	return scanRecord(r.pool.QueryRow(ctx, query, id))
}

// ListRecent возвращает последние раунды, опционально по типу.
func (r *ContextRepo) ListRecent(ctx context.Context, kind string, limit int) ([]domain.ContextRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, kind, state, discovered, completed, error, started_at, finished_at
		FROM context_rounds
		WHERE ($1::text IS NULL OR kind = $1)
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, nullString(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var records []domain.ContextRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// scanRecord читает одну запись раунда.
func scanRecord(row pgx.Row) (*domain.ContextRecord, error) {
	var (
		rec       domain.ContextRecord
		completed []string
		errText   *string
	)

	err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.State,
		&rec.Discovered,
		&completed,
		&errText,
		&rec.StartedAt,
		&rec.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}

	rec.Completed = make([]domain.ActionID, 0, len(completed))
	for _, s := range completed {
		id, err := domain.ParseActionID(s)
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rec.Completed = append(rec.Completed, id)
	}

	if errText != nil {
		rec.Error = *errText
	}
	return &rec, nil
}

// nullString возвращает nil для пустой строки (NULL в запросе).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
