// Package batcher partitions a 1-indexed line sequence into contiguous batches
// and folds batch results back into the sequence.
package batcher

import (
	"fmt"

	"sublingo/internal/services"
	"sublingo/internal/subtitles"
)

// Range is an inclusive 1-based index span.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string { return fmt.Sprintf("%d-%d", r.Start, r.End) }

// Len returns the number of indices covered.
func (r Range) Len() int { return r.End - r.Start + 1 }

// Batch is a contiguous slice of the sequence translated as one request.
// End-Start+1 always equals len(Lines).
type Batch struct {
	Start    int
	End      int
	Lines    []string
	Attempts int
}

// Range returns the batch's index span.
func (b Batch) Range() Range { return Range{Start: b.Start, End: b.End} }

func (b Batch) String() string {
	return fmt.Sprintf("batch %d-%d (%d lines, %d attempts)", b.Start, b.End, len(b.Lines), b.Attempts)
}

// Mismatch records a result that was discarded during Merge.
type Mismatch struct {
	Range    Range
	Expected int
	Got      int
	Err      error
}

// Split partitions indices 1..N of lines into batches of at most size lines.
func Split(lines subtitles.Lines, size int) ([]Batch, error) {
	if size < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "batcher", "split", fmt.Sprintf("batch size must be >= 1, got %d", size), nil)
	}
	n := lines.Count()
	batches := make([]Batch, 0, (n+size-1)/size)
	for start := 1; start <= n; start += size {
		end := min(start+size-1, n)
		batches = append(batches, newBatch(lines, start, end))
	}
	return batches, nil
}

// SplitIndices groups ascending indices into contiguous runs and splits each
// run into batches of at most size lines. Out-of-range or repeated indices are
// ignored.
func SplitIndices(lines subtitles.Lines, indices []int, size int) ([]Batch, error) {
	if size < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "batcher", "split", fmt.Sprintf("batch size must be >= 1, got %d", size), nil)
	}
	n := lines.Count()
	var batches []Batch
	runStart, prev := 0, 0
	flush := func() {
		if runStart == 0 {
			return
		}
		for start := runStart; start <= prev; start += size {
			batches = append(batches, newBatch(lines, start, min(start+size-1, prev)))
		}
	}
	for _, idx := range indices {
		if idx < 1 || idx > n || idx <= prev {
			continue
		}
		if runStart != 0 && idx == prev+1 {
			prev = idx
			continue
		}
		flush()
		runStart, prev = idx, idx
	}
	flush()
	return batches, nil
}

// Merge returns a copy of target with each batch's result written over its
// range. Results whose length differs from the batch are discarded and
// reported; the original text for that range is kept.
func Merge(target subtitles.Lines, batches []Batch, results map[Range][]string) (subtitles.Lines, []Mismatch) {
	merged := make(subtitles.Lines, len(target))
	copy(merged, target)
	var mismatches []Mismatch
	for _, b := range batches {
		translated, ok := results[b.Range()]
		if !ok {
			continue
		}
		if len(translated) != len(b.Lines) {
			mismatches = append(mismatches, Mismatch{
				Range:    b.Range(),
				Expected: len(b.Lines),
				Got:      len(translated),
				Err: services.Wrap(services.ErrResultMismatch, "batcher", "merge",
					fmt.Sprintf("batch %s: expected %d lines, got %d", b.Range(), len(b.Lines), len(translated)), nil),
			})
			continue
		}
		for i, line := range translated {
			idx := b.Start + i
			if idx < len(merged) {
				merged[idx] = line
			}
		}
	}
	return merged, mismatches
}

func newBatch(lines subtitles.Lines, start, end int) Batch {
	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, lines[i])
	}
	return Batch{Start: start, End: end, Lines: out}
}
