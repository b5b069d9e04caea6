// Package services defines shared utilities consumed by the dispatcher, the
// provider clients, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, batch ranges, and provider names for
//     logging and history records.
//   - Structured error markers plus the Wrap helper so call failures can be
//     classified (transport vs malformed response vs residual source script)
//     without string matching.
//
// Use these helpers when wiring new provider clients so retry and fallback
// decisions stay uniform across the pipeline.
package services
