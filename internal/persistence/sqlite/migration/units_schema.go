package migration

import (
	"context"
	"database/sql"
)

// Schema-only units. Every DDL statement either carries IF NOT EXISTS / IF
// EXISTS or is preceded by a metadata guard, so re-application after a crash
// between the unit's work and the ledger write is safe.

func upCreateCoreTables(ctx context.Context, db *sql.DB, env *Env) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			revoked_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			layout_json TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS system_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return &StructuralError{Version: 1, Name: "create_core_tables", Statement: statement, Err: err}
		}
	}
	return nil
}

func downCreateCoreTables(ctx context.Context, db *sql.DB, env *Env) error {
	for _, table := range []string{"system_config", "boards", "sessions", "users"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return &StructuralError{Version: 1, Name: "create_core_tables", Statement: "DROP TABLE " + table, Err: err}
		}
	}
	return nil
}

func upAddPasswordFlagsToUsers(ctx context.Context, db *sql.DB, env *Env) error {
	logger := env.logger()

	// The two columns are guarded independently: a crash after the first
	// ALTER must not fail the re-run on the second.
	hasMustChange, err := columnExists(ctx, db, "users", "must_change_password")
	if err != nil {
		return err
	}
	hasLocalFlag, err := columnExists(ctx, db, "users", "has_local_password")
	if err != nil {
		return err
	}

	if hasMustChange && hasLocalFlag {
		logger.DebugContext(ctx, "password flag columns already present, skipping")
		return nil
	}

	if !hasMustChange {
		statement := `ALTER TABLE users ADD COLUMN must_change_password INTEGER NOT NULL DEFAULT 0`
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return &StructuralError{Version: 2, Name: "add_password_flags_to_users", Statement: statement, Err: err}
		}
	} else {
		logger.DebugContext(ctx, "column already present", "column", "must_change_password")
	}

	if !hasLocalFlag {
		statement := `ALTER TABLE users ADD COLUMN has_local_password INTEGER NOT NULL DEFAULT 1`
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return &StructuralError{Version: 2, Name: "add_password_flags_to_users", Statement: statement, Err: err}
		}
	} else {
		logger.DebugContext(ctx, "column already present", "column", "has_local_password")
	}

	return nil
}

func upCreateIntegrationsTable(ctx context.Context, db *sql.DB, env *Env) error {
	statement := `CREATE TABLE IF NOT EXISTS integrations (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '',
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, statement); err != nil {
		return &StructuralError{Version: 3, Name: "create_integrations_table", Statement: statement, Err: err}
	}
	return nil
}

func downCreateIntegrationsTable(ctx context.Context, db *sql.DB, env *Env) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS integrations"); err != nil {
		return &StructuralError{Version: 3, Name: "create_integrations_table", Statement: "DROP TABLE integrations", Err: err}
	}
	return nil
}

func upCreateIntegrationShares(ctx context.Context, db *sql.DB, env *Env) error {
	// Shares originally referenced integrations by type, which was
	// unambiguous while at most one instance per type existed. The unique
	// index on integration_type created here silently collapses shares of
	// two same-type instances; fix_share_uniqueness corrects it later
	// without touching this unit's ledger entry.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS integration_shares (
			id TEXT PRIMARY KEY,
			integration_type TEXT NOT NULL DEFAULT '',
			share_type TEXT NOT NULL,
			share_target TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shares_type_target
			ON integration_shares (integration_type, share_type, share_target)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return &StructuralError{Version: 5, Name: "create_integration_shares", Statement: statement, Err: err}
		}
	}
	return nil
}

func downCreateIntegrationShares(ctx context.Context, db *sql.DB, env *Env) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS integration_shares"); err != nil {
		return &StructuralError{Version: 5, Name: "create_integration_shares", Statement: "DROP TABLE integration_shares", Err: err}
	}
	return nil
}

func upFixShareUniqueness(ctx context.Context, db *sql.DB, env *Env) error {
	// The stale index may already be absent (re-run) or may never have
	// existed (fresh database), so the drop is try/ignore.
	if err := dropIndexIfExists(ctx, db, "idx_shares_type_target"); err != nil {
		return err
	}

	exists, err := indexExists(ctx, db, "idx_shares_instance_target")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	statement := `CREATE UNIQUE INDEX idx_shares_instance_target
		ON integration_shares (integration_id, share_type, share_target)`
	if _, err := db.ExecContext(ctx, statement); err != nil {
		return &StructuralError{Version: 10, Name: "fix_share_uniqueness", Statement: statement, Err: err}
	}
	return nil
}

func upAddBoardHomeFlag(ctx context.Context, db *sql.DB, env *Env) error {
	exists, err := columnExists(ctx, db, "boards", "is_home")
	if err != nil {
		return err
	}
	if exists {
		env.logger().DebugContext(ctx, "column already present", "column", "is_home")
		return nil
	}

	statement := `ALTER TABLE boards ADD COLUMN is_home INTEGER NOT NULL DEFAULT 0`
	if _, err := db.ExecContext(ctx, statement); err != nil {
		return &StructuralError{Version: 12, Name: "add_board_home_flag", Statement: statement, Err: err}
	}
	return nil
}

func upIndexSessionsUserID(ctx context.Context, db *sql.DB, env *Env) error {
	exists, err := indexExists(ctx, db, "idx_sessions_user_id")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	statement := `CREATE INDEX idx_sessions_user_id ON sessions (user_id)`
	if _, err := db.ExecContext(ctx, statement); err != nil {
		return &StructuralError{Version: 15, Name: "index_sessions_user_id", Statement: statement, Err: err}
	}
	return nil
}

func downIndexSessionsUserID(ctx context.Context, db *sql.DB, env *Env) error {
	return dropIndexIfExists(ctx, db, "idx_sessions_user_id")
}

func downNotImplemented(ctx context.Context, db *sql.DB, env *Env) error {
	return ErrDownNotImplemented
}
