package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/homedash/internal/persistence"
	"github.com/example/homedash/internal/persistence/sqlite/migration"
)

// setupPool opens a temp-file database and applies the full migration
// lineage, so repository tests run against the real schema.
func setupPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	pool, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := migration.NewEnv(logger, nil, nil)
	runner := migration.NewRunner(pool.DB(), migration.DefaultRegistry(), env)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return pool
}

func TestOpen_RequiresDSN(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("Expected Open to fail without a DSN")
	}
}

func TestConnectionPool_WithTransaction(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO system_config (key, value) VALUES ('k', 'v')`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	var value string
	if err := pool.DB().QueryRowContext(ctx, `SELECT value FROM system_config WHERE key = 'k'`).Scan(&value); err != nil {
		t.Fatalf("Failed to read committed row: %v", err)
	}
	if value != "v" {
		t.Errorf("Expected committed value v, got %q", value)
	}
}

func TestConnectionPool_WithTransactionRollsBack(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	failure := errors.New("abort")
	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO system_config (key, value) VALUES ('k', 'v')`); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Expected transaction error, got %v", err)
	}

	var count int
	if err := pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM system_config`).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to discard the insert, found %d rows", count)
	}
}

func TestErrorMapper_MapError(t *testing.T) {
	mapper := NewErrorMapper()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "no rows", err: sql.ErrNoRows, want: persistence.ErrNotFound},
		{name: "unique", err: errors.New("constraint failed: UNIQUE constraint failed: users.email"), want: persistence.ErrDuplicate},
		{name: "not null", err: errors.New("NOT NULL constraint failed: users.email"), want: persistence.ErrConstraintViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapper.MapError(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
