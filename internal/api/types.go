package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ProjectResponse describes the loaded project.
type ProjectResponse struct {
	SourceFile     string         `json:"sourceFile"`
	Version        string         `json:"version"`
	Created        string         `json:"created,omitempty"`
	Modified       string         `json:"modified,omitempty"`
	TotalLines     int            `json:"totalLines"`
	CompletedLines int            `json:"completedLines"`
	FailedLines    int            `json:"failedLines"`
	StatusCounts   map[string]int `json:"statusCounts"`
	Settings       Settings       `json:"settings"`
	ExportReady    bool           `json:"exportReady"`
	Readiness      string         `json:"readiness"`
}

// Settings mirrors the translation settings stored in the project.
type Settings struct {
	Model          string            `json:"model"`
	ChunkSize      int               `json:"chunkSize"`
	Tone           string            `json:"tone"`
	SourceLanguage string            `json:"sourceLanguage,omitempty"`
	TargetLanguage string            `json:"targetLanguage,omitempty"`
	NameMapSize    int               `json:"nameMapSize"`
	NameMap        map[string]string `json:"nameMap,omitempty"`
}

// ProgressResponse reports ledger progress and the last dispatch event.
type ProgressResponse struct {
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Percent   float64    `json:"percent"`
	Run       *RunStatus `json:"run,omitempty"`
}

// RunStatus is the live state of the dispatch run attached to the server.
type RunStatus struct {
	RunID           string  `json:"runId,omitempty"`
	Phase           string  `json:"phase"`
	Message         string  `json:"message"`
	Range           string  `json:"range"`
	BatchesDone     int     `json:"batchesDone"`
	BatchesTotal    int     `json:"batchesTotal"`
	Percent         float64 `json:"percent"`
	LastProvider    string  `json:"lastProvider,omitempty"`
	LastBatchFailed bool    `json:"lastBatchFailed"`
	UpdatedAt       string  `json:"updatedAt"`
}

// Line is one subtitle entry.
type Line struct {
	Index      int    `json:"index"`
	Time       string `json:"time"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Status     string `json:"status"`
}

// LinesResponse wraps a list of lines.
type LinesResponse struct {
	Count int    `json:"count"`
	Lines []Line `json:"lines"`
}

// Run is a history run in transport form.
type Run struct {
	ID          string `json:"id"`
	ProjectPath string `json:"projectPath"`
	SourceFile  string `json:"sourceFile,omitempty"`
	Mode        string `json:"mode"`
	Status      string `json:"status"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt,omitempty"`
	DurationMS  int64  `json:"durationMs,omitempty"`
	Total       int    `json:"totalBatches"`
	Succeeded   int    `json:"succeededBatches"`
	Failed      int    `json:"failedBatches"`
	Error       string `json:"error,omitempty"`
}

// BatchResult is a recorded batch outcome.
type BatchResult struct {
	Range      string `json:"range"`
	Success    bool   `json:"success"`
	Provider   string `json:"provider,omitempty"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"durationMs"`
	ErrorKind  string `json:"errorKind,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RunsResponse lists runs.
type RunsResponse struct {
	Runs []Run `json:"runs"`
}

// RunResponse describes one run in detail.
type RunResponse struct {
	Run           Run            `json:"run"`
	Batches       []BatchResult  `json:"batches"`
	ProviderUsage map[string]int `json:"providerUsage"`
}

// ErrorResponse is written for every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
