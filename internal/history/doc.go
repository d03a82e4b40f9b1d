// Package history keeps a SQLite ledger of publish runs and their per-file
// outcomes so operators can see what each run uploaded and why files failed.
//
// The schema is embedded and versioned; a database created by a different
// schema version is rejected with ErrSchemaMismatch rather than migrated.
package history
