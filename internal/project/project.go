package project

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"sublingo/internal/batcher"
	"sublingo/internal/language"
	"sublingo/internal/sanitize"
	"sublingo/internal/services"
	"sublingo/internal/subtitles"
	"sublingo/internal/validate"
)

// FormatVersion is written to every saved project.
const FormatVersion = "1.0"

// Status is the per-line translation state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusUnresolved Status = "unresolved"
)

// ParseStatus accepts the status names used in saved projects.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusFailed, StatusUnresolved:
		return s, nil
	default:
		return "", services.Wrap(services.ErrValidation, "project", "status", fmt.Sprintf("unknown status %q", value), nil)
	}
}

// Settings records the translation parameters a project was created with.
type Settings struct {
	Model          string           `json:"model"`
	ChunkSize      int              `json:"chunk_size"`
	Tone           string           `json:"tone"`
	SourceLanguage string           `json:"source_language,omitempty"`
	TargetLanguage string           `json:"target_language,omitempty"`
	StrictScript   bool             `json:"strict_script_check,omitempty"`
	NameMap        sanitize.NameMap `json:"name_map"`
}

// Document is the persisted form of a project. Every slice is 1-indexed
// with an inert entry at index 0.
type Document struct {
	Version        string          `json:"version"`
	Created        time.Time       `json:"created"`
	Modified       time.Time       `json:"modified"`
	SourceFile     string          `json:"original_file"`
	FileSize       int64           `json:"file_size"`
	Times          subtitles.Lines `json:"times"`
	Original       subtitles.Lines `json:"subs_original"`
	Translated     subtitles.Lines `json:"subs_translated"`
	Statuses       []Status        `json:"statuses"`
	Settings
	TotalLines     int `json:"total_lines"`
	CompletedLines int `json:"completed_lines"`
	FailedLines    int `json:"failed_lines"`
}

// Line is a read-only view of one index.
type Line struct {
	Index      int    `json:"index"`
	Time       string `json:"time"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Status     Status `json:"status"`
}

// Project is the mutable ledger. All methods are safe for concurrent use.
type Project struct {
	mu   sync.Mutex
	doc  Document
	path string
	now  func() time.Time
}

// New creates a project for source with every real index pending. times and
// lines must share the same length.
func New(source string, times, lines subtitles.Lines, settings Settings) *Project {
	n := max(lines.Count(), times.Count())
	now := time.Now()
	doc := Document{
		Version:    FormatVersion,
		Created:    now,
		Modified:   now,
		SourceFile: source,
		Times:      resize(times, n),
		Original:   resize(lines, n),
		Translated: subtitles.NewLines(n),
		Statuses:   make([]Status, n+1),
		Settings:   settings,
		TotalLines: n,
	}
	if info, err := os.Stat(source); err == nil {
		doc.FileSize = info.Size()
	}
	for i := 1; i <= n; i++ {
		doc.Statuses[i] = StatusPending
	}
	return &Project{doc: doc, now: time.Now}
}

func resize(lines subtitles.Lines, n int) subtitles.Lines {
	out := subtitles.NewLines(n)
	copy(out, lines)
	out[0] = ""
	return out
}

func (p *Project) touch() {
	p.doc.Modified = p.now()
}

// recount derives the completed and failed counters from the statuses.
func (p *Project) recount() {
	completed, failed := 0, 0
	for _, s := range p.doc.Statuses[1:] {
		switch s {
		case StatusDone:
			completed++
		case StatusFailed:
			failed++
		}
	}
	p.doc.CompletedLines = completed
	p.doc.FailedLines = failed
}

// ApplyBatchResult writes lines over the batch range and marks each index
// done or failed. Lines beyond the range are ignored.
func (p *Project) ApplyBatchResult(b batcher.Batch, lines []string, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := StatusFailed
	if success {
		status = StatusDone
	}
	for i, line := range lines {
		idx := b.Start + i
		if idx > b.End || idx < 1 || idx >= len(p.doc.Translated) {
			break
		}
		p.doc.Translated[idx] = line
		p.doc.Statuses[idx] = status
	}
	p.recount()
	p.touch()
}

// MarkInProgress flags every index of b as in-progress.
func (p *Project) MarkInProgress(b batcher.Batch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for idx := max(b.Start, 1); idx <= b.End && idx < len(p.doc.Statuses); idx++ {
		p.doc.Statuses[idx] = StatusInProgress
	}
	p.recount()
	p.touch()
}

// SetLineStatus overrides the status of one index.
func (p *Project) SetLineStatus(idx int, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkIndex(idx); err != nil {
		return err
	}
	p.doc.Statuses[idx] = status
	p.recount()
	p.touch()
	return nil
}

// SetLineTranslation records a manual edit and marks the line done.
func (p *Project) SetLineTranslation(idx int, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkIndex(idx); err != nil {
		return err
	}
	p.doc.Translated[idx] = text
	p.doc.Statuses[idx] = StatusDone
	p.recount()
	p.touch()
	return nil
}

func (p *Project) checkIndex(idx int) error {
	if idx < 1 || idx > p.doc.TotalLines {
		return services.Wrap(services.ErrNotFound, "project", "line", fmt.Sprintf("line %d out of range 1-%d", idx, p.doc.TotalLines), nil)
	}
	return nil
}

func (p *Project) indicesWith(statuses ...Status) []int {
	var out []int
	for idx := 1; idx < len(p.doc.Statuses); idx++ {
		if slices.Contains(statuses, p.doc.Statuses[idx]) {
			out = append(out, idx)
		}
	}
	return out
}

// UnresolvedIndices returns the pending, failed and unresolved indices in
// ascending order.
func (p *Project) UnresolvedIndices() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indicesWith(StatusPending, StatusFailed, StatusUnresolved)
}

// ResumableIndices is UnresolvedIndices plus lines left in-progress by an
// interrupted run.
func (p *Project) ResumableIndices() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indicesWith(StatusPending, StatusInProgress, StatusFailed, StatusUnresolved)
}

// ResidualSourceScriptIndices returns indices whose translation still holds
// source-script characters.
func (p *Project) ResidualSourceScriptIndices(strict bool) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.residual(strict)
}

func (p *Project) residual(strict bool) []int {
	var out []int
	for idx := 1; idx < len(p.doc.Translated); idx++ {
		if line := p.doc.Translated[idx]; line != "" && validate.ContainsSourceScript(line, strict) {
			out = append(out, idx)
		}
	}
	return out
}

func (p *Project) sourceLanguage() string {
	if p.doc.SourceLanguage != "" {
		return language.DisplayName(p.doc.SourceLanguage)
	}
	return "Chinese"
}

// ExportReadiness reports whether every line is resolved and free of source
// script, with a message naming the first blocker.
func (p *Project) ExportReadiness() (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if unresolved := p.indicesWith(StatusPending, StatusInProgress, StatusFailed, StatusUnresolved); len(unresolved) > 0 {
		return false, fmt.Sprintf("%d lines are unresolved", len(unresolved))
	}
	if residual := p.residual(p.doc.StrictScript); len(residual) > 0 {
		return false, fmt.Sprintf("%d lines still contain %s", len(residual), p.sourceLanguage())
	}
	return true, "Ready for export"
}

// Progress returns the done count, the total and the percentage.
func (p *Project) Progress() (int, int, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress()
}

func (p *Project) progress() (int, int, float64) {
	total := p.doc.TotalLines
	completed := p.doc.CompletedLines
	if total == 0 {
		return completed, total, 0
	}
	return completed, total, float64(completed) / float64(total) * 100
}

// Summary renders a human-readable overview.
func (p *Project) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	completed, total, pct := p.progress()
	unresolved := len(p.indicesWith(StatusPending, StatusFailed, StatusUnresolved))
	residual := len(p.residual(p.doc.StrictScript))

	var b strings.Builder
	b.WriteString("Project Summary:\n")
	fmt.Fprintf(&b, "- File: %s\n", filepath.Base(p.doc.SourceFile))
	fmt.Fprintf(&b, "- Total Lines: %d\n", total)
	fmt.Fprintf(&b, "- Completed: %d (%.1f%%)\n", completed, pct)
	fmt.Fprintf(&b, "- Unresolved: %d\n", unresolved)
	fmt.Fprintf(&b, "- Still %s: %d\n", p.sourceLanguage(), residual)
	fmt.Fprintf(&b, "- Model: %s\n", p.doc.Model)
	fmt.Fprintf(&b, "- Tone: %s\n", p.doc.Tone)
	fmt.Fprintf(&b, "- Created: %s\n", p.doc.Created.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Modified: %s\n", p.doc.Modified.Format(time.RFC3339))
	return b.String()
}

// Settings returns the project's translation settings.
func (p *Project) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Settings
}

// SourceFile returns the path of the subtitle file the project was built from.
func (p *Project) SourceFile() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.SourceFile
}

// Original returns a copy of the source lines.
func (p *Project) Original() subtitles.Lines {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Original.Clone()
}

// Translated returns a copy of the translated lines.
func (p *Project) Translated() subtitles.Lines {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Translated.Clone()
}

// Line returns the view of one index.
func (p *Project) Line(idx int) (Line, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkIndex(idx); err != nil {
		return Line{}, err
	}
	return p.line(idx), nil
}

// Lines returns views for the given indices, skipping out-of-range ones.
func (p *Project) Lines(indices []int) []Line {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Line, 0, len(indices))
	for _, idx := range indices {
		if idx >= 1 && idx <= p.doc.TotalLines {
			out = append(out, p.line(idx))
		}
	}
	return out
}

func (p *Project) line(idx int) Line {
	return Line{
		Index:      idx,
		Time:       p.doc.Times[idx],
		Original:   p.doc.Original[idx],
		Translated: p.doc.Translated[idx],
		Status:     p.doc.Statuses[idx],
	}
}

// ExportText renders the translation as SRT. A done line with an empty
// translation is left out; an unfinished line without a translation falls
// back to its original text.
func (p *Project) ExportText() (string, error) {
	p.mu.Lock()
	lines := p.doc.Translated.Clone()
	for idx := 1; idx < len(lines); idx++ {
		if lines[idx] == "" && p.doc.Statuses[idx] != StatusDone {
			lines[idx] = p.doc.Original[idx]
		}
	}
	times := p.doc.Times.Clone()
	p.mu.Unlock()

	return subtitles.Export(times, lines)
}

// Snapshot returns a deep copy of the persisted document.
func (p *Project) Snapshot() Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Project) snapshot() Document {
	doc := p.doc
	doc.Times = p.doc.Times.Clone()
	doc.Original = p.doc.Original.Clone()
	doc.Translated = p.doc.Translated.Clone()
	doc.Statuses = slices.Clone(p.doc.Statuses)
	doc.NameMap = sanitize.NewNameMap(p.doc.NameMap.Pairs()...)
	return doc
}
