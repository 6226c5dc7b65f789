// Package testfixtures provides shared helpers for tests that need a real
// migrated SQLite database or a deterministic clock.
package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/homedash/internal/persistence/sqlite"
	"github.com/example/homedash/internal/persistence/sqlite/migration"
	"github.com/example/homedash/internal/security"
)

// Clock is the fixed reference time used across fixtures.
var Clock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Now returns the fixed reference time; pass it where a service expects a
// clock function.
func Now() time.Time { return Clock }

// DiscardLogger returns a logger whose output is dropped.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewMigratedPool opens a temp-file SQLite database, runs the full migration
// lineage against it, and registers cleanup with t.
func NewMigratedPool(t testing.TB) *sqlite.ConnectionPool {
	return NewMigratedPoolWithCipher(t, nil)
}

// NewMigratedPoolWithCipher is NewMigratedPool with an explicit config
// cipher for the encryption migration.
func NewMigratedPoolWithCipher(t testing.TB, cipher *security.ConfigCipher) *sqlite.ConnectionPool {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	pool, err := sqlite.Open(sqlite.DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	env := migration.NewEnv(DiscardLogger(), cipher, Now)
	runner := migration.NewRunner(pool.DB(), migration.DefaultRegistry(), env)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return pool
}
