package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestBootstrapAppliesMigrationsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "quilt.db")

	database, err := Bootstrap(ctx, path)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	database.Close()

	database, err = Bootstrap(ctx, path)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	defer database.Close()

	var applied int
	if err := database.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if applied != len(entries) {
		t.Fatalf("expected %d applied migrations, got %d", len(entries), applied)
	}

	for _, table := range []string{"history_sessions", "history_states", "exports"} {
		var name string
		if err := database.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestBootstrapInMemory(t *testing.T) {
	t.Parallel()

	database, err := Bootstrap(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec("INSERT INTO history_sessions(id, cursor, created_at, updated_at) VALUES ('a', 0, 'now', 'now')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestForeignKeysEnabledOnEveryConnection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := Bootstrap(ctx, filepath.Join(t.TempDir(), "quilt.db"))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer database.Close()

	conns := make([]*sql.Conn, 3)
	for i := range conns {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	for i, conn := range conns {
		var enabled int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("conn %d: read pragma: %v", i, err)
		}
		if enabled != 1 {
			t.Fatalf("conn %d: foreign_keys = %d, want 1", i, enabled)
		}
	}
}
