// Package dispatch drives batches through the primary/fallback provider
// hierarchy.
//
// Each batch first tries the primary providers one at a time in declared
// order. When none of them returns a valid, script-clean answer, the fallback
// providers race concurrently for up to retry_rounds rounds separated by a
// fixed delay. The first fallback success cancels the rest of the race, and
// the dispatcher waits for every racing call to return before moving on. A
// batch that exhausts every round resolves as a failure carrying its original
// lines.
//
// Every provider call holds a per-provider semaphore permit for its whole
// duration and waits on an optional requests-per-second limiter. Replies go
// through validate.Validate and sanitize.ProcessBatch before they count as a
// success.
//
// Run processes batches sequentially, reports progress to an Observer, and
// applies each resolved batch to a Sink (usually the project ledger) in
// submission order. Cancellation through the context stops the run between
// steps; batches that already resolved keep their results.
package dispatch
