// Package history persists one row per dispatched render request in a SQLite
// journal.
//
// The journal is append-mostly: the pipeline records outcomes, the CLI and
// the status API read them back, and Prune trims rows past the retention
// window at daemon start. A schema version mismatch is reported rather than
// migrated; delete the database to recreate it.
package history
