package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-runner/internal/domain"
)

// HistoryStore keeps the history in the quiz_history table, one row per entry.
// Save rewrites the table in one transaction so it always mirrors the in-memory log.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT date, score, total, percentage FROM quiz_history ORDER BY position`)
	if err != nil {
		return nil, &domain.LoadError{Source: "postgres quiz_history", Err: err}
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.Date, &e.Score, &e.Total, &e.Percentage); err != nil {
			return nil, &domain.LoadError{Source: "postgres quiz_history", Err: fmt.Errorf("scan history: %w", err)}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.LoadError{Source: "postgres quiz_history", Err: err}
	}
	return entries, nil
}

func (s *HistoryStore) Save(ctx context.Context, entries []domain.HistoryEntry) error {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quiz_history`); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i, e := range entries {
			batch.Queue(
				`INSERT INTO quiz_history (position, date, score, total, percentage) VALUES ($1, $2, $3, $4, $5)`,
				i, e.Date, e.Score, e.Total, e.Percentage,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
