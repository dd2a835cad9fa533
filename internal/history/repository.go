package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quilt/internal/db"
	"quilt/internal/quilt"
)

var ErrSessionNotFound = errors.New("history session not found")

// Repository persists snapshots per session.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{db: database, now: time.Now}
}

// Save replaces the stored snapshot of sessionID.
func (r *Repository) Save(ctx context.Context, sessionID string, snapshot Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history save: %w", err)
	}
	defer tx.Rollback()

	now := db.Timestamp(r.now())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history_sessions(id, cursor, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = excluded.updated_at
	`, sessionID, snapshot.Cursor, now, now); err != nil {
		return fmt.Errorf("upsert history session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM history_states WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("clear history states: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO history_states(session_id, position, seed, state_json) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for position, state := range snapshot.States {
		payload, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode history state %d: %w", position, err)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, position, state.Seed, string(payload)); err != nil {
			return fmt.Errorf("insert history state %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history save: %w", err)
	}
	return nil
}

// Load returns the snapshot stored for sessionID.
func (r *Repository) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	var cursor int
	err := r.db.QueryRowContext(ctx, "SELECT cursor FROM history_sessions WHERE id = ?", sessionID).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load history session: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT state_json FROM history_states WHERE session_id = ? ORDER BY position ASC", sessionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query history states: %w", err)
	}
	defer rows.Close()

	states := make([]quilt.State, 0, DefaultCapacity)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan history state: %w", err)
		}

		var state quilt.State
		if err := json.Unmarshal([]byte(payload), &state); err != nil {
			return Snapshot{}, fmt.Errorf("decode history state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate history states: %w", err)
	}

	return Snapshot{States: states, Cursor: cursor}, nil
}

// Latest returns the most recently saved session.
func (r *Repository) Latest(ctx context.Context) (string, Snapshot, error) {
	var sessionID string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM history_sessions ORDER BY updated_at DESC, rowid DESC LIMIT 1").Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return "", Snapshot{}, fmt.Errorf("find latest history session: %w", err)
	}

	snapshot, err := r.Load(ctx, sessionID)
	if err != nil {
		return "", Snapshot{}, err
	}
	return sessionID, snapshot, nil
}

// Prune deletes all but the keep most recently saved sessions.
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM history_sessions
		WHERE id NOT IN (
			SELECT id FROM history_sessions ORDER BY updated_at DESC, rowid DESC LIMIT ?
		)
	`, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("prune history sessions: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned sessions: %w", err)
	}
	return removed, nil
}
