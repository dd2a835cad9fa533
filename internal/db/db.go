package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// TimeLayout is a fixed-width RFC 3339 layout, so stored timestamps order
// correctly as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp formats t in UTC with TimeLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func Bootstrap(ctx context.Context, dbPath string) (*sql.DB, error) {
	database, err := Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, database); err != nil {
		database.Close()
		return nil, err
	}

	return database, nil
}

func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	inMemory := dbPath == MemoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	pragmas := []string{
		"foreign_keys(1)",
		"busy_timeout(5000)",
	}
	if !inMemory {
		pragmas = append([]string{"journal_mode(WAL)"}, pragmas...)
	}

	database, err := sql.Open("sqlite", dataSourceName(dbPath, pragmas))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		database.SetMaxOpenConns(1)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return database, nil
}

// dataSourceName applies pragmas through the DSN so that every pooled
// connection gets them, not just the first one.
func dataSourceName(dbPath string, pragmas []string) string {
	query := make(url.Values)
	for _, pragma := range pragmas {
		query.Add("_pragma", pragma)
	}
	return "file:" + dbPath + "?" + query.Encode()
}
