package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestRunner_AppliesFullLineage(t *testing.T) {
	db := setupTestDB(t)
	env := newTestEnv(t, nil)
	ctx := context.Background()

	registry := DefaultRegistry()
	applied, err := NewRunner(db, registry, env).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if applied != registry.Len() {
		t.Errorf("Expected %d applied migrations, got %d", registry.Len(), applied)
	}

	for _, table := range []string{"users", "sessions", "boards", "system_config", "integrations", "integration_shares"} {
		exists, err := tableExists(ctx, db, table)
		if err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("Expected table %s to exist after full migration", table)
		}
	}

	if got := countRows(t, db, ledgerTable); got != registry.Len() {
		t.Errorf("Expected %d ledger rows, got %d", registry.Len(), got)
	}
}

func TestRunner_SecondRunIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	env := newTestEnv(t, nil)
	ctx := context.Background()

	runner := NewRunner(db, DefaultRegistry(), env)
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	applied, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected 0 migrations applied on second run, got %d", applied)
	}
}

// A crash after a unit's work but before its ledger write leaves the ledger
// row missing. The next run must re-apply just that unit and succeed.
func TestRunner_ReappliesAfterMissingLedgerRow(t *testing.T) {
	db := setupTestDB(t)
	env := newTestEnv(t, nil)
	ctx := context.Background()

	runner := NewRunner(db, DefaultRegistry(), env)
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("Initial run failed: %v", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM "+ledgerTable+" WHERE version = 2"); err != nil {
		t.Fatalf("Failed to delete ledger row: %v", err)
	}

	applied, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Re-run after ledger loss failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("Expected 1 migration re-applied, got %d", applied)
	}
	if got := countRows(t, db, ledgerTable); got != DefaultRegistry().Len() {
		t.Errorf("Expected full ledger after re-run, got %d rows", got)
	}
}

func TestRunner_AbortsOnFirstFailure(t *testing.T) {
	db := setupTestDB(t)
	env := newTestEnv(t, nil)
	ctx := context.Background()

	unitErr := errors.New("boom")
	thirdRan := false

	units := []Unit{
		{Version: 1, Name: "first", Up: func(ctx context.Context, db *sql.DB, env *Env) error {
			_, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS t_first (id INTEGER)")
			return err
		}},
		{Version: 2, Name: "second", Up: func(ctx context.Context, db *sql.DB, env *Env) error {
			return unitErr
		}},
		{Version: 3, Name: "third", Up: func(ctx context.Context, db *sql.DB, env *Env) error {
			thirdRan = true
			return nil
		}},
	}

	registry, err := NewRegistry(units)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	applied, err := NewRunner(db, registry, env).Run(ctx)
	if err == nil {
		t.Fatal("Expected Run to fail on second unit")
	}
	if !errors.Is(err, unitErr) {
		t.Errorf("Expected wrapped unit error, got %v", err)
	}
	if applied != 1 {
		t.Errorf("Expected 1 migration applied before abort, got %d", applied)
	}
	if thirdRan {
		t.Error("Expected third unit to be skipped after failure")
	}

	// Only the successful unit may have a ledger row.
	ledger := NewLedger(db)
	records, err := ledger.Applied(ctx)
	if err != nil {
		t.Fatalf("Failed to read ledger: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 ledger row, got %d", len(records))
	}
	if _, ok := records[2]; ok {
		t.Error("Expected no ledger row for the failed unit")
	}
}

// The ledger row, not the registry name, decides whether a version has run: a
// renamed unit must not be re-applied.
func TestRunner_LedgerVersionIsAuthoritative(t *testing.T) {
	db := setupTestDB(t)
	env := newTestEnv(t, nil)
	ctx := context.Background()

	ledger := NewLedger(db)
	if err := ledger.EnsureTable(ctx); err != nil {
		t.Fatalf("Failed to ensure ledger table: %v", err)
	}
	if err := ledger.Record(ctx, 1, "old_name", testClock); err != nil {
		t.Fatalf("Failed to record ledger row: %v", err)
	}

	ran := false
	units := []Unit{
		{Version: 1, Name: "new_name", Up: func(ctx context.Context, db *sql.DB, env *Env) error {
			ran = true
			return nil
		}},
	}
	registry, err := NewRegistry(units)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	applied, err := NewRunner(db, registry, env).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected 0 migrations applied, got %d", applied)
	}
	if ran {
		t.Error("Expected renamed unit to be skipped, ledger version already recorded")
	}
}
