package migration

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/example/homedash/internal/security"
)

// Unit is a single self-contained schema or data change. Units are defined at
// compile time as static data and never mutated at runtime.
type Unit struct {
	// Version is a positive integer, unique across the registry. It defines
	// application order (ascending).
	Version int

	// Name is a short human-readable slug. It is not used for ordering or
	// uniqueness enforcement.
	Name string

	// Up performs the change. It must independently re-verify its
	// preconditions before acting, because it may be invoked again after a
	// crash that occurred after real work but before the ledger commit.
	Up func(ctx context.Context, db *sql.DB, env *Env) error

	// Down is a best-effort inverse. Most units omit it; forward-only
	// migration is the supported contract.
	Down func(ctx context.Context, db *sql.DB, env *Env) error
}

// Env carries the collaborators shared by migration units: a logger for
// progress lines, the config cipher for at-rest encryption, and a clock.
type Env struct {
	Logger *slog.Logger
	Cipher *security.ConfigCipher
	Now    func() time.Time
}

// NewEnv constructs an Env, substituting defaults for nil collaborators.
func NewEnv(logger *slog.Logger, cipher *security.ConfigCipher, now func() time.Time) *Env {
	if logger == nil {
		logger = slog.Default()
	}
	if cipher == nil {
		cipher, _ = security.NewConfigCipher(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Env{Logger: logger, Cipher: cipher, Now: now}
}

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) cipher() *security.ConfigCipher {
	if e == nil || e.Cipher == nil {
		cipher, _ := security.NewConfigCipher(nil)
		return cipher
	}
	return e.Cipher
}

// AppliedMigration is one ledger row: a version that has been fully and
// successfully applied and must never be re-run automatically.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting schema guards and
// data rewrites run inside or outside an explicit transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
