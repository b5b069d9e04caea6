package history

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// Mode records how a run was started.
type Mode string

const (
	ModeTranslate Mode = "translate"
	ModeResume    Mode = "resume"
)

// Run is one dispatch run over a project.
type Run struct {
	ID          string     `json:"id"`
	ProjectPath string     `json:"project_path"`
	SourceFile  string     `json:"source_file,omitempty"`
	Mode        Mode       `json:"mode"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Total       int        `json:"total_batches"`
	Succeeded   int        `json:"succeeded_batches"`
	Failed      int        `json:"failed_batches"`
	Error       string     `json:"error,omitempty"`
}

// Duration returns the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// BatchResult is the recorded outcome of one batch in a run.
type BatchResult struct {
	RunID      string        `json:"run_id"`
	Start      int           `json:"start"`
	End        int           `json:"end"`
	Success    bool          `json:"success"`
	Provider   string        `json:"provider,omitempty"`
	Attempts   int           `json:"attempts"`
	Duration   time.Duration `json:"duration"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Totals are the batch counters written when a run finishes.
type Totals struct {
	Total     int
	Succeeded int
	Failed    int
}
