// Package api serves a read-only HTTP view of a translation project and the
// run history while a run is in progress or after it has finished.
//
// # Routes
//
//	GET /api/health            liveness probe
//	GET /api/project           project header, counters and export readiness
//	GET /api/progress          ledger progress plus the latest dispatch event
//	GET /api/unresolved        lines still pending, in progress or failed
//	GET /api/residual          lines whose translation keeps source script
//	GET /api/lines/{index}     one line
//	GET /api/runs              recent runs, newest first
//	GET /api/runs/{id}         one run with its batch results
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// The Tracker observer records the latest dispatch event so /api/progress
// can report the batch in flight.
package api
