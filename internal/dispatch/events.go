package dispatch

import (
	"fmt"

	"sublingo/internal/batcher"
)

// Phase distinguishes the two progress events emitted per batch.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseResolved Phase = "resolved"
)

// Event reports progress of a run. Completed counts batches resolved so far.
type Event struct {
	Phase     Phase
	Completed int
	Total     int
	Message   string
	Range     batcher.Range
	Success   bool
	Provider  string
	// Result is set on PhaseResolved events.
	Result *Result
}

// Percent returns completion in the range 0..100.
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Completed) / float64(e.Total) * 100
}

// Observer receives progress events on the driver goroutine. It must not block.
type Observer interface {
	Progress(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Progress(e Event) { f(e) }

// Sink receives batch state changes in submission order.
type Sink interface {
	MarkInProgress(b batcher.Batch)
	ApplyBatchResult(b batcher.Batch, lines []string, success bool)
}

func startedMessage(r batcher.Range) string {
	return fmt.Sprintf("Translating chunk %s...", r)
}

func resolvedMessage(res Result) string {
	mark, provider := "✗", "failed"
	if res.Success {
		mark, provider = "✓", res.Provider
	}
	return fmt.Sprintf("%s Chunk %s (%s)", mark, res.Batch.Range(), provider)
}
