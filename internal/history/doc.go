// Package history persists segmentation runs and their segments in SQLite.
//
// Every pipeline run is recorded when it starts and updated when it finishes
// or fails, so the CLI can list past runs and show the segments each one
// produced. The schema is embedded and versioned; a database created by an
// incompatible build is rejected with ErrSchemaMismatch rather than migrated.
package history
