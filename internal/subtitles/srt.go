package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var blankLineSplit = regexp.MustCompile(`\n[ \t]*\n`)

// Document is a parsed SRT file. Times and Lines share indices; Present marks
// which indices actually appeared in the source.
type Document struct {
	Times   Lines
	Lines   Lines
	Present []bool
}

// Count returns the highest index seen.
func (d Document) Count() int { return d.Lines.Count() }

// Warning describes a block that Parse skipped.
type Warning struct {
	Block  int
	Reason string
}

func (w Warning) String() string { return fmt.Sprintf("block %d: %s", w.Block, w.Reason) }

// Parse splits SRT text into indexed timecodes and cue text. Index gaps are
// kept as empty, non-present entries.
func Parse(text string) (Document, []Warning) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	doc := Document{Times: NewLines(0), Lines: NewLines(0), Present: []bool{false}}
	var warnings []Warning
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return doc, nil
	}
	for n, block := range blankLineSplit.Split(trimmed, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		rows := strings.Split(block, "\n")
		if len(rows) < 3 {
			warnings = append(warnings, Warning{Block: n + 1, Reason: "expected index, timecode and content"})
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rows[0]))
		if err != nil || idx < 1 {
			warnings = append(warnings, Warning{Block: n + 1, Reason: fmt.Sprintf("invalid index %q", strings.TrimSpace(rows[0]))})
			continue
		}
		timecode := strings.TrimSpace(rows[1])
		if err := checkTimecode(timecode); err != nil {
			warnings = append(warnings, Warning{Block: n + 1, Reason: err.Error()})
			continue
		}
		content := strings.TrimSpace(strings.Join(rows[2:], "\n"))
		doc.grow(idx)
		if doc.Present[idx] {
			warnings = append(warnings, Warning{Block: n + 1, Reason: fmt.Sprintf("duplicate index %d replaces earlier cue", idx)})
		}
		doc.Times[idx] = timecode
		doc.Lines[idx] = content
		doc.Present[idx] = true
	}
	return doc, warnings
}

func (d *Document) grow(idx int) {
	for len(d.Lines) <= idx {
		d.Times = append(d.Times, "")
		d.Lines = append(d.Lines, "")
		d.Present = append(d.Present, false)
	}
}

// Validate reports whether every index 1..N is present.
func Validate(doc Document) bool {
	if doc.Count() < 1 || len(doc.Times) != len(doc.Lines) || len(doc.Present) != len(doc.Lines) {
		return false
	}
	for i := 1; i < len(doc.Present); i++ {
		if !doc.Present[i] {
			return false
		}
	}
	return true
}

// Missing returns the indices in 1..N that did not appear in the source.
func (d Document) Missing() []int {
	var gaps []int
	for i := 1; i < len(d.Present); i++ {
		if !d.Present[i] {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// Export renders indices that have both a timecode and content, ascending,
// with blocks separated by a blank line.
func Export(times, lines Lines) (string, error) {
	if len(times) != len(lines) {
		return "", fmt.Errorf("export srt: %d timecodes vs %d lines", len(times), len(lines))
	}
	blocks := make([]string, 0, lines.Count())
	for i := 1; i < len(lines); i++ {
		if times[i] == "" || lines[i] == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("%d\n%s\n%s\n", i, times[i], lines[i]))
	}
	return strings.Join(blocks, "\n"), nil
}

func checkTimecode(value string) error {
	start, end, ok := strings.Cut(value, "-->")
	if !ok {
		return fmt.Errorf("invalid timecode %q", value)
	}
	for _, side := range []string{start, end} {
		fields := strings.Fields(side)
		if len(fields) == 0 {
			return fmt.Errorf("invalid timecode %q", value)
		}
		if _, err := parseSRTTimestamp(fields[0]); err != nil {
			return err
		}
	}
	return nil
}

// parseSRTTimestamp converts HH:MM:SS,mmm (or with a period) to seconds. The
// millisecond part is optional and defaults to zero.
func parseSRTTimestamp(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	clock, millisText, ok := strings.Cut(value, ",")
	if !ok {
		millisText = "0"
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
