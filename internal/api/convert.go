package api

import (
	"fmt"
	"time"

	"sublingo/internal/history"
	"sublingo/internal/project"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromDocument converts a project snapshot.
func FromDocument(doc project.Document, ready bool, readiness string) ProjectResponse {
	counts := map[string]int{}
	for _, s := range []project.Status{
		project.StatusPending, project.StatusInProgress, project.StatusDone,
		project.StatusFailed, project.StatusUnresolved,
	} {
		counts[string(s)] = 0
	}
	for i := 1; i < len(doc.Statuses); i++ {
		counts[string(doc.Statuses[i])]++
	}

	names := make(map[string]string, doc.NameMap.Len())
	for _, pair := range doc.NameMap.Pairs() {
		names[pair.Source] = pair.Target
	}
	return ProjectResponse{
		SourceFile:     doc.SourceFile,
		Version:        doc.Version,
		Created:        formatTime(doc.Created),
		Modified:       formatTime(doc.Modified),
		TotalLines:     doc.TotalLines,
		CompletedLines: doc.CompletedLines,
		FailedLines:    doc.FailedLines,
		StatusCounts:   counts,
		Settings: Settings{
			Model:          doc.Model,
			ChunkSize:      doc.ChunkSize,
			Tone:           doc.Tone,
			SourceLanguage: doc.SourceLanguage,
			TargetLanguage: doc.TargetLanguage,
			NameMapSize:    doc.NameMap.Len(),
			NameMap:        names,
		},
		ExportReady: ready,
		Readiness:   readiness,
	}
}

// FromLines converts project line views.
func FromLines(lines []project.Line) LinesResponse {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{
			Index:      l.Index,
			Time:       l.Time,
			Original:   l.Original,
			Translated: l.Translated,
			Status:     string(l.Status),
		})
	}
	return LinesResponse{Count: len(out), Lines: out}
}

// FromRun converts a history run.
func FromRun(r history.Run) Run {
	out := Run{
		ID:          r.ID,
		ProjectPath: r.ProjectPath,
		SourceFile:  r.SourceFile,
		Mode:        string(r.Mode),
		Status:      string(r.Status),
		StartedAt:   formatTime(r.StartedAt),
		Total:       r.Total,
		Succeeded:   r.Succeeded,
		Failed:      r.Failed,
		Error:       r.Error,
	}
	if r.FinishedAt != nil {
		out.FinishedAt = formatTime(*r.FinishedAt)
		out.DurationMS = r.Duration().Milliseconds()
	}
	return out
}

// FromBatchResults converts recorded batch outcomes.
func FromBatchResults(results []history.BatchResult) []BatchResult {
	out := make([]BatchResult, 0, len(results))
	for _, r := range results {
		out = append(out, BatchResult{
			Range:      fmt.Sprintf("%d-%d", r.Start, r.End),
			Success:    r.Success,
			Provider:   r.Provider,
			Attempts:   r.Attempts,
			DurationMS: r.Duration.Milliseconds(),
			ErrorKind:  r.ErrorKind,
			Error:      r.Error,
		})
	}
	return out
}
