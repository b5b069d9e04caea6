package api

import (
	"sync"
	"time"

	"sublingo/internal/dispatch"
)

// Tracker remembers the latest dispatch event. It implements
// dispatch.Observer and is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	runID   string
	last    *dispatch.Event
	updated time.Time
}

// NewTracker returns a tracker labelled with runID.
func NewTracker(runID string) *Tracker {
	return &Tracker{runID: runID}
}

// Progress records e.
func (t *Tracker) Progress(e dispatch.Event) {
	if t == nil {
		return
	}
	e.Result = nil
	t.mu.Lock()
	t.last = &e
	t.updated = time.Now()
	t.mu.Unlock()
}

// Status returns the live run state, or nil before the first event.
func (t *Tracker) Status() *RunStatus {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil
	}
	e := t.last
	return &RunStatus{
		RunID:           t.runID,
		Phase:           string(e.Phase),
		Message:         e.Message,
		Range:           e.Range.String(),
		BatchesDone:     e.Completed,
		BatchesTotal:    e.Total,
		Percent:         e.Percent(),
		LastProvider:    e.Provider,
		LastBatchFailed: e.Phase == dispatch.PhaseResolved && !e.Success,
		UpdatedAt:       formatTime(t.updated),
	}
}
