package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/homedash/internal/persistence"
	"github.com/example/homedash/internal/security"
)

const (
	// widgetHeightScaleFactor doubles stored widget heights, matching the
	// halving of the dashboard grid's row unit.
	widgetHeightScaleFactor = 2

	// sessionRetentionDays bounds how long a session row is kept, counted
	// from creation. Pruning is rolling, relative to the run time.
	sessionRetentionDays = 90
)

// upMigrateSingleInstanceIntegrations moves the legacy single-instance
// integration settings out of the system_config key/value blob into dedicated
// integrations rows. Each legacy entry becomes one instance with the fixed
// discriminator "primary". A non-empty integrations table means the move
// already happened, so the whole unit is skipped rather than duplicated.
func upMigrateSingleInstanceIntegrations(ctx context.Context, db *sql.DB, env *Env) error {
	logger := env.logger()

	populated, err := tableHasRows(ctx, db, "integrations")
	if err != nil {
		return err
	}
	if populated {
		logger.InfoContext(ctx, "integrations table already populated, skipping legacy import")
		return nil
	}

	var legacy string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM system_config WHERE key = 'integrations'`,
	).Scan(&legacy)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DebugContext(ctx, "no legacy integration settings found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read legacy integration settings: %w", err)
	}

	var byType map[string]map[string]any
	if err := json.Unmarshal([]byte(legacy), &byType); err != nil {
		logger.WarnContext(ctx, "legacy integration settings are not valid JSON, leaving in place", "error", err)
		return nil
	}

	types := make([]string, 0, len(byType))
	for integrationType := range byType {
		types = append(types, integrationType)
	}
	sort.Strings(types)

	now := env.now().UTC().Format(time.RFC3339)
	imported := 0

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, integrationType := range types {
		settings := byType[integrationType]

		enabled := true
		if v, ok := settings["enabled"].(bool); ok {
			enabled = v
		}
		delete(settings, "enabled")

		// An entry with no residual settings carries nothing worth a row.
		if len(settings) == 0 {
			logger.DebugContext(ctx, "skipping empty legacy integration entry", "type", integrationType)
			continue
		}

		config, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to serialize settings for %s: %w", integrationType, err)
		}

		enabledFlag := 0
		if enabled {
			enabledFlag = 1
		}

		// Configs stay plaintext here; encrypt_integration_configs rewrites
		// them once a key is available.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO integrations (id, type, name, config, enabled, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			integrationType+"-primary", integrationType, integrationType,
			string(config), enabledFlag, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert integration %s: %w", integrationType, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit legacy integration import: %w", err)
	}

	logger.InfoContext(ctx, "imported legacy integrations", "count", imported, "entries", len(types))
	return nil
}

// upRenamePlexmediaIntegrationType renames the integration type "plexmedia"
// to "plex" everywhere it is embedded: the type column, derived instance IDs,
// and share references. Each statement matches only the old value, so a
// partial run converges on re-application.
func upRenamePlexmediaIntegrationType(ctx context.Context, db *sql.DB, env *Env) error {
	logger := env.logger()

	result, err := db.ExecContext(ctx,
		`UPDATE integrations SET type = 'plex' WHERE type = 'plexmedia'`,
	)
	if err != nil {
		return fmt.Errorf("failed to rename integration type: %w", err)
	}
	typesRenamed, _ := result.RowsAffected()

	result, err = db.ExecContext(ctx,
		`UPDATE integrations
		 SET id = 'plex-' || substr(id, length('plexmedia-') + 1)
		 WHERE id LIKE 'plexmedia-%'`,
	)
	if err != nil {
		return fmt.Errorf("failed to rewrite integration ids: %w", err)
	}
	idsRewritten, _ := result.RowsAffected()

	result, err = db.ExecContext(ctx,
		`UPDATE integration_shares SET integration_type = 'plex' WHERE integration_type = 'plexmedia'`,
	)
	if err != nil {
		return fmt.Errorf("failed to rewrite share references: %w", err)
	}
	sharesRewritten, _ := result.RowsAffected()

	logger.InfoContext(ctx, "renamed plexmedia integration type",
		"types", typesRenamed,
		"ids", idsRewritten,
		"shares", sharesRewritten,
	)
	return nil
}

// upScaleWidgetHeights doubles every widget height stored in board layouts.
// Rows are read fully before any write so the table is never locked across
// the JSON work; the writes then happen in one transaction. A malformed
// layout is counted and left untouched, never fatal.
func upScaleWidgetHeights(ctx context.Context, db *sql.DB, env *Env) error {
	return rewriteBoardLayouts(ctx, db, env, "scaled widget heights", func(raw *string) (*string, Outcome) {
		return ScaleWidgetHeights(raw, widgetHeightScaleFactor)
	})
}

// upNormalizeBoardLayoutObjects wraps legacy bare widget arrays into the
// object layout variant so every stored layout shares one shape.
func upNormalizeBoardLayoutObjects(ctx context.Context, db *sql.DB, env *Env) error {
	return rewriteBoardLayouts(ctx, db, env, "normalized board layouts", NormalizeBoardLayout)
}

func rewriteBoardLayouts(ctx context.Context, db *sql.DB, env *Env, message string, transform func(*string) (*string, Outcome)) error {
	logger := env.logger()

	rows, err := db.QueryContext(ctx, `SELECT id, layout_json FROM boards`)
	if err != nil {
		return fmt.Errorf("failed to read boards: %w", err)
	}
	defer rows.Close()

	type pendingWrite struct {
		id     string
		layout string
	}

	var stats TransformStats
	var writes []pendingWrite
	for rows.Next() {
		var id string
		var layout sql.NullString
		if err := rows.Scan(&id, &layout); err != nil {
			return fmt.Errorf("failed to scan board row: %w", err)
		}

		var raw *string
		if layout.Valid {
			raw = &layout.String
		}

		updated, outcome := transform(raw)
		stats.record(outcome)
		switch outcome {
		case OutcomeApplied:
			writes = append(writes, pendingWrite{id: id, layout: *updated})
		case OutcomeSkippedInvalid:
			logger.WarnContext(ctx, "board layout is not valid JSON, leaving untouched", "board_id", id)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate boards: %w", err)
	}

	if len(writes) > 0 {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, write := range writes {
			if _, err := tx.ExecContext(ctx,
				`UPDATE boards SET layout_json = ? WHERE id = ?`,
				write.layout, write.id,
			); err != nil {
				return fmt.Errorf("failed to update board %s: %w", write.id, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit board layout rewrite: %w", err)
		}
	}

	logger.InfoContext(ctx, message,
		"applied", stats.Applied,
		"unchanged", stats.Unchanged,
		"skipped", stats.Skipped,
	)
	return nil
}

// upEncryptIntegrationConfigs rewrites stored integration configs from
// plaintext JSON to encrypted form. Without a configured key the unit logs a
// warning and succeeds without touching anything; it records in the ledger
// either way, matching the forward-only contract. Already-encrypted values
// are recognized and skipped, so a crash mid-rewrite re-runs cleanly.
func upEncryptIntegrationConfigs(ctx context.Context, db *sql.DB, env *Env) error {
	logger := env.logger()
	cipher := env.cipher()

	if !cipher.Enabled() {
		logger.WarnContext(ctx, "no encryption key configured, integration configs remain plaintext")
		return nil
	}

	rows, err := db.QueryContext(ctx, `SELECT id, config FROM integrations`)
	if err != nil {
		return fmt.Errorf("failed to read integrations: %w", err)
	}
	defer rows.Close()

	type pendingWrite struct {
		id     string
		config string
	}

	var stats TransformStats
	var writes []pendingWrite
	for rows.Next() {
		var id, config string
		if err := rows.Scan(&id, &config); err != nil {
			return fmt.Errorf("failed to scan integration row: %w", err)
		}

		if config == "" || security.IsEncrypted(config) {
			stats.record(OutcomeUnchanged)
			continue
		}
		if !json.Valid([]byte(config)) {
			stats.record(OutcomeSkippedInvalid)
			logger.WarnContext(ctx, "integration config is not valid JSON, leaving untouched", "integration_id", id)
			continue
		}

		encrypted, err := cipher.Encrypt([]byte(config))
		if err != nil {
			return fmt.Errorf("failed to encrypt config for %s: %w", id, err)
		}
		writes = append(writes, pendingWrite{id: id, config: encrypted})
		stats.record(OutcomeApplied)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate integrations: %w", err)
	}

	if len(writes) > 0 {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, write := range writes {
			if _, err := tx.ExecContext(ctx,
				`UPDATE integrations SET config = ? WHERE id = ?`,
				write.config, write.id,
			); err != nil {
				return fmt.Errorf("failed to update integration %s: %w", write.id, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit config encryption: %w", err)
		}
	}

	logger.InfoContext(ctx, "encrypted integration configs",
		"applied", stats.Applied,
		"unchanged", stats.Unchanged,
		"skipped", stats.Skipped,
	)
	return nil
}

// upReplaceShareNameReferences backfills the integration_id column on shares
// from the legacy type reference. Only rows whose derived instance actually
// exists are rewritten; a share pointing at a vanished integration keeps its
// empty integration_id and is invisible to the corrected unique index until
// an operator resolves it.
func upReplaceShareNameReferences(ctx context.Context, db *sql.DB, env *Env) error {
	logger := env.logger()

	hasColumn, err := columnExists(ctx, db, "integration_shares", "integration_id")
	if err != nil {
		return err
	}
	if !hasColumn {
		statement := `ALTER TABLE integration_shares ADD COLUMN integration_id TEXT NOT NULL DEFAULT ''`
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return &StructuralError{Version: 9, Name: "replace_share_name_references", Statement: statement, Err: err}
		}
	}

	result, err := db.ExecContext(ctx,
		`UPDATE integration_shares
		 SET integration_id = integration_type || '-primary'
		 WHERE integration_id = ''
		   AND integration_type != ''
		   AND EXISTS (
		     SELECT 1 FROM integrations i WHERE i.id = integration_type || '-primary'
		   )`,
	)
	if err != nil {
		return fmt.Errorf("failed to backfill share references: %w", err)
	}

	backfilled, _ := result.RowsAffected()
	logger.InfoContext(ctx, "backfilled share integration references", "count", backfilled)
	return nil
}

// upPruneStaleSessions deletes session rows older than the retention window.
// Timestamps are RFC3339 text, so lexicographic comparison matches
// chronological order.
func upPruneStaleSessions(ctx context.Context, db *sql.DB, env *Env) error {
	cutoff := env.now().UTC().AddDate(0, 0, -sessionRetentionDays).Format(time.RFC3339)

	result, err := db.ExecContext(ctx,
		`DELETE FROM sessions WHERE created_at < ?`, cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to prune stale sessions: %w", err)
	}

	pruned, _ := result.RowsAffected()
	env.logger().InfoContext(ctx, "pruned stale sessions", "count", pruned, "cutoff", cutoff)
	return nil
}

// upResetProxyAuthPlaceholders replaces stored password hashes on accounts
// provisioned through proxy authentication with an unusable sentinel. Those
// accounts never set a local password, so any hash on them is a provisioning
// artifact that must not be loginable. Accounts with a real local password
// are untouched.
func upResetProxyAuthPlaceholders(ctx context.Context, db *sql.DB, env *Env) error {
	now := env.now().UTC().Format(time.RFC3339)

	result, err := db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, updated_at = ?
		 WHERE has_local_password = 0 AND password_hash != ?`,
		persistence.SentinelPasswordHash, now, persistence.SentinelPasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to reset proxy auth placeholders: %w", err)
	}

	reset, _ := result.RowsAffected()
	env.logger().InfoContext(ctx, "reset proxy auth password placeholders", "count", reset)
	return nil
}
