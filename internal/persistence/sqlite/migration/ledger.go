package migration

import (
	"context"
	"database/sql"
	"time"
)

const ledgerTable = "schema_migrations"

// Ledger is the durable record of which versions have been applied. Presence
// of a version means "fully and successfully applied — never re-run
// automatically". The ledger is append-only during normal operation.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a ledger backed by the given database handle.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// EnsureTable creates the ledger table if absent. This is the bootstrap step,
// conceptually version 0, and is safe against both a brand-new empty database
// and an existing one.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	createSQL := `
		CREATE TABLE IF NOT EXISTS ` + ledgerTable + ` (
			version INTEGER NOT NULL UNIQUE,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`
	if _, err := l.db.ExecContext(ctx, createSQL); err != nil {
		return &LedgerError{Operation: "create table", Err: err}
	}
	return nil
}

// Applied returns every recorded version keyed by version number.
func (l *Ledger) Applied(ctx context.Context) (map[int]AppliedMigration, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT version, name, applied_at FROM `+ledgerTable+` ORDER BY version ASC`)
	if err != nil {
		return nil, &LedgerError{Operation: "read applied versions", Err: err}
	}
	defer rows.Close()

	applied := make(map[int]AppliedMigration)
	for rows.Next() {
		var record AppliedMigration
		var appliedAtStr string
		if err := rows.Scan(&record.Version, &record.Name, &appliedAtStr); err != nil {
			return nil, &LedgerError{Operation: "scan applied version", Err: err}
		}
		if parsed, parseErr := time.Parse(time.RFC3339, appliedAtStr); parseErr == nil {
			record.AppliedAt = parsed
		}
		applied[record.Version] = record
	}
	if err := rows.Err(); err != nil {
		return nil, &LedgerError{Operation: "iterate applied versions", Err: err}
	}
	return applied, nil
}

// Record appends one row. Callers invoke it only after the unit's own work is
// durable, so a crash before this write is detectable (ledger absent means
// the unit must re-run).
func (l *Ledger) Record(ctx context.Context, version int, name string, appliedAt time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO `+ledgerTable+` (version, name, applied_at) VALUES (?, ?, ?)`,
		version, name, appliedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &LedgerError{Operation: "record version", Err: err}
	}
	return nil
}
