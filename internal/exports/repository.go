// Package exports records the files written by pattern exports.
package exports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quilt/internal/db"
)

const defaultListLimit = 50

type Record struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	Seed      int64  `json:"seed"`
	Size      int    `json:"size"`
	CreatedAt string `json:"createdAt"`
}

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{db: database, now: time.Now}
}

func (r *Repository) Add(ctx context.Context, record Record) (Record, error) {
	if record.CreatedAt == "" {
		record.CreatedAt = db.Timestamp(r.now())
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO exports(session_id, kind, path, seed, size, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		record.SessionID,
		record.Kind,
		record.Path,
		record.Seed,
		record.Size,
		record.CreatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert export: %w", err)
	}

	record.ID, err = result.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("read export id: %w", err)
	}
	return record, nil
}

// List returns the newest exports first.
func (r *Repository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, kind, path, seed, size, created_at
		FROM exports
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.Kind,
			&record.Path,
			&record.Seed,
			&record.Size,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}

	return records, nil
}
