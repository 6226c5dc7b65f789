package migration

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner walks the registry in ascending version order, compares against the
// ledger, applies each unapplied unit, and records success. It executes
// strictly sequentially; the whole sequence runs once at process startup
// before the application begins serving requests.
type Runner struct {
	db       *sql.DB
	registry *Registry
	ledger   *Ledger
	env      *Env
}

// NewRunner constructs a runner over an already-open database handle.
func NewRunner(db *sql.DB, registry *Registry, env *Env) *Runner {
	if env == nil {
		env = NewEnv(nil, nil, nil)
	}
	return &Runner{
		db:       db,
		registry: registry,
		ledger:   NewLedger(db),
		env:      env,
	}
}

// Run applies every pending unit and returns how many were applied. On the
// first failure it stops immediately, does not write the ledger row, does not
// attempt later versions, and returns the error; the caller must treat this
// as fatal to process startup.
func (r *Runner) Run(ctx context.Context) (int, error) {
	logger := r.env.logger()

	if err := r.ledger.EnsureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return 0, err
	}

	units := r.registry.Units()
	logger.DebugContext(ctx, "migration runner starting",
		"registered", len(units),
		"applied", len(applied),
	)

	count := 0
	for _, unit := range units {
		if record, ok := applied[unit.Version]; ok {
			if record.Name != unit.Name {
				// Permissive by decision: the ledger row, not the current
				// source name, is authoritative for "has this run".
				logger.WarnContext(ctx, "ledger name differs from registry",
					"version", unit.Version,
					"ledger_name", record.Name,
					"registry_name", unit.Name,
				)
			}
			continue
		}

		logger.InfoContext(ctx, "applying migration", "version", unit.Version, "name", unit.Name)

		if err := unit.Up(ctx, r.db, r.env); err != nil {
			return count, fmt.Errorf("migration %d (%s) failed: %w", unit.Version, unit.Name, err)
		}

		// The ledger write is the last durable action for this version. A
		// crash before it re-runs the unit on the next start, which every Up
		// body tolerates.
		if err := r.ledger.Record(ctx, unit.Version, unit.Name, r.env.now()); err != nil {
			return count, err
		}

		count++
		logger.DebugContext(ctx, "migration applied", "version", unit.Version, "name", unit.Name)
	}

	if count == 0 {
		logger.DebugContext(ctx, "no pending migrations")
	} else {
		logger.InfoContext(ctx, "migrations complete", "applied", count)
	}
	return count, nil
}
