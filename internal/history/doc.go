// Package history records translation runs and their per-batch outcomes in a
// SQLite database so past runs can be listed and audited.
//
// Each run gets a UUID that is also attached to log records as run_id. The
// schema is applied from embedded migrations on Open.
package history
