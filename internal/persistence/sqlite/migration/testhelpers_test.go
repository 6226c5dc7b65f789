package migration

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/homedash/internal/security"
)

// testClock is the fixed "now" for migration tests, so retention cutoffs and
// stored timestamps are deterministic.
var testClock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Each pool connection gets its own in-memory database, so the pool must
	// stay at a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnv(t *testing.T, cipher *security.ConfigCipher) *Env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEnv(logger, cipher, func() time.Time { return testClock })
}

// migrateTo applies the default lineage up to and including version.
func migrateTo(t *testing.T, db *sql.DB, env *Env, version int) {
	t.Helper()

	var subset []Unit
	for _, unit := range defaultUnits {
		if unit.Version <= version {
			subset = append(subset, unit)
		}
	}

	registry, err := NewRegistry(subset)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	if _, err := NewRunner(db, registry, env).Run(context.Background()); err != nil {
		t.Fatalf("Failed to migrate to version %d: %v", version, err)
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return count
}

func rfc3339(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
