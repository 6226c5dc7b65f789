// Package migration evolves the homedash SQLite schema and its stored JSON
// payloads across sequential released versions.
//
// Migrations are defined in code as an ordered registry of units, each with a
// positive integer version, a slug name, and an Up procedure that receives
// the open database handle. A schema_migrations ledger records which versions
// have been applied; the ledger row is the last durable action for a version,
// so every Up body must tolerate being invoked again on a partially-applied
// state (a crash between a unit's work and the ledger write re-runs the
// unit on the next start).
//
// The runner executes strictly sequentially at process startup, before the
// server begins serving requests. A structural failure (DDL error) aborts the
// whole startup sequence; a single row whose payload cannot be transformed is
// preserved unchanged and counted, never fatal.
//
// Example usage:
//
//	runner := migration.NewRunner(db, migration.DefaultRegistry(), env)
//	applied, err := runner.Run(ctx)
//	if err != nil {
//		// fatal: the host must not start serving
//	}
package migration
