package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Schema guards let Up bodies re-verify preconditions before acting, which is
// what makes re-application after a crash safe. Table and column names are
// compile-time literals from the units, never user input.

func tableExists(ctx context.Context, q querier, table string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return true, nil
}

func columnExists(ctx context.Context, q querier, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return false, fmt.Errorf("failed to read table info for %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			primary int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &primary); err != nil {
			return false, fmt.Errorf("failed to scan table info for %s: %w", table, err)
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to iterate table info for %s: %w", table, err)
	}
	return false, nil
}

func indexExists(ctx context.Context, q querier, index string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'index' AND name = ?`, index,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", index, err)
	}
	return true, nil
}

func tableHasRows(ctx context.Context, q querier, table string) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %q LIMIT 1)", table),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check rows in %s: %w", table, err)
	}
	return exists == 1, nil
}

// dropIndexIfExists drops an index with try/ignore semantics: the index may
// already be absent (re-run tolerance) or may never have been created (a
// fresh database that skipped the intermediate buggy version entirely).
func dropIndexIfExists(ctx context.Context, q querier, index string) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf("DROP INDEX IF EXISTS %q", index)); err != nil {
		if strings.Contains(err.Error(), "no such index") {
			return nil
		}
		return fmt.Errorf("failed to drop index %s: %w", index, err)
	}
	return nil
}
