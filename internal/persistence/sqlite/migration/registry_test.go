package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func noopUp(ctx context.Context, db *sql.DB, env *Env) error { return nil }

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		units   []Unit
		wantErr error
	}{
		{
			name: "duplicate version",
			units: []Unit{
				{Version: 1, Name: "a", Up: noopUp},
				{Version: 1, Name: "b", Up: noopUp},
			},
			wantErr: ErrDuplicateVersion,
		},
		{
			name:    "zero version",
			units:   []Unit{{Version: 0, Name: "a", Up: noopUp}},
			wantErr: ErrInvalidVersion,
		},
		{
			name:    "negative version",
			units:   []Unit{{Version: -3, Name: "a", Up: noopUp}},
			wantErr: ErrInvalidVersion,
		},
		{
			name:    "missing up",
			units:   []Unit{{Version: 1, Name: "a"}},
			wantErr: ErrMissingUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.units)
			if err == nil {
				t.Fatal("Expected construction to fail")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewRegistry_OrdersByVersion(t *testing.T) {
	units := []Unit{
		{Version: 3, Name: "c", Up: noopUp},
		{Version: 1, Name: "a", Up: noopUp},
		{Version: 2, Name: "b", Up: noopUp},
	}

	registry, err := NewRegistry(units)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	ordered := registry.Units()
	for i, want := range []int{1, 2, 3} {
		if ordered[i].Version != want {
			t.Errorf("Position %d: expected version %d, got %d", i, want, ordered[i].Version)
		}
	}
}

// Version gaps are permitted: the registry orders what it has.
func TestNewRegistry_AllowsVersionGaps(t *testing.T) {
	units := []Unit{
		{Version: 1, Name: "a", Up: noopUp},
		{Version: 5, Name: "b", Up: noopUp},
	}
	registry, err := NewRegistry(units)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if registry.Len() != 2 {
		t.Errorf("Expected 2 units, got %d", registry.Len())
	}
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()
	units := registry.Units()

	if len(units) != 15 {
		t.Fatalf("Expected 15 released migrations, got %d", len(units))
	}
	for i, unit := range units {
		if unit.Version != i+1 {
			t.Errorf("Position %d: expected version %d, got %d (%s)", i, i+1, unit.Version, unit.Name)
		}
		if unit.Name == "" {
			t.Errorf("Version %d has an empty name", unit.Version)
		}
	}
}
