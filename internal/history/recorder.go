package history

import (
	"context"
	"log/slog"

	"sublingo/internal/dispatch"
	"sublingo/internal/logging"
	"sublingo/internal/services"
)

// Recorder writes resolved batches of one run to the store. It implements
// dispatch.Observer; write failures are logged and never stop the run.
type Recorder struct {
	store  *Store
	runID  string
	logger *slog.Logger
}

// NewRecorder returns an observer bound to runID.
func NewRecorder(store *Store, runID string, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, runID: runID, logger: logging.NewComponentLogger(logger, "history")}
}

// Progress records PhaseResolved events.
func (r *Recorder) Progress(e dispatch.Event) {
	if r == nil || r.store == nil || e.Phase != dispatch.PhaseResolved || e.Result == nil {
		return
	}
	res := e.Result
	entry := BatchResult{
		RunID:    r.runID,
		Start:    res.Batch.Start,
		End:      res.Batch.End,
		Success:  res.Success,
		Provider: res.Provider,
		Attempts: res.Attempts,
		Duration: res.Duration,
	}
	if res.Err != nil {
		entry.ErrorKind = services.ErrorKind(res.Err)
		entry.Error = res.Err.Error()
	}
	if err := r.store.RecordBatch(context.Background(), entry); err != nil {
		logging.WarnWithContext(r.logger, "record batch result failed", "history_write_failed",
			logging.String(logging.FieldRunID, r.runID),
			logging.String(logging.FieldBatchRange, res.Batch.Range().String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the history database is writable"),
			logging.String(logging.FieldImpact, "run history will be incomplete"),
		)
	}
}
