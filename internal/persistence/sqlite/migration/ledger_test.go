package migration

import (
	"context"
	"testing"
	"time"
)

func TestLedger_EnsureTableIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	if err := ledger.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed: %v", err)
	}
	if err := ledger.EnsureTable(ctx); err != nil {
		t.Errorf("EnsureTable should be idempotent, second call failed: %v", err)
	}
}

func TestLedger_RecordAndApplied(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	if err := ledger.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed: %v", err)
	}

	if err := ledger.Record(ctx, 1, "create_core_tables", testClock); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := ledger.Record(ctx, 2, "add_password_flags_to_users", testClock.Add(time.Second)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	applied, err := ledger.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied failed: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("Expected 2 applied records, got %d", len(applied))
	}

	record, ok := applied[1]
	if !ok {
		t.Fatal("Expected a record for version 1")
	}
	if record.Name != "create_core_tables" {
		t.Errorf("Expected name create_core_tables, got %q", record.Name)
	}
	if !record.AppliedAt.Equal(testClock) {
		t.Errorf("Expected applied_at %v, got %v", testClock, record.AppliedAt)
	}
}

func TestLedger_RejectsDuplicateVersion(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	if err := ledger.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed: %v", err)
	}
	if err := ledger.Record(ctx, 1, "first", testClock); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := ledger.Record(ctx, 1, "second", testClock); err == nil {
		t.Error("Expected duplicate version record to fail")
	}
}

func TestLedger_AppliedOnEmptyTable(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	if err := ledger.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable failed: %v", err)
	}

	applied, err := ledger.Applied(ctx)
	if err != nil {
		t.Fatalf("Applied failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("Expected empty ledger, got %d records", len(applied))
	}
}
