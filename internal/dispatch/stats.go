package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sublingo/internal/batcher"
)

// Stats summarizes one run.
type Stats struct {
	Total         int
	Succeeded     int
	Failed        int
	ProviderUsage map[string]int
	// CallDuration sums the per-batch durations.
	CallDuration time.Duration
	Started      time.Time
	Elapsed      time.Duration
}

// SuccessRate returns the percentage of successful batches.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// Summary renders the statistics block printed after a run.
func (s Stats) Summary() string {
	var b strings.Builder
	b.WriteString("Translation Statistics:\n")
	fmt.Fprintf(&b, "- Total Chunks: %d\n", s.Total)
	fmt.Fprintf(&b, "- Successful: %d\n", s.Succeeded)
	fmt.Fprintf(&b, "- Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "- Success Rate: %.1f%%\n", s.SuccessRate())
	fmt.Fprintf(&b, "- Total Duration: %.2fs\n", s.CallDuration.Seconds())
	fmt.Fprintf(&b, "- Elapsed Time: %.2fs\n", s.Elapsed.Seconds())
	b.WriteString("- API Usage:")
	if len(s.ProviderUsage) == 0 {
		b.WriteString(" none\n")
		return b.String()
	}
	b.WriteByte('\n')
	names := make([]string, 0, len(s.ProviderUsage))
	for name := range s.ProviderUsage {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  - %s: %d\n", name, s.ProviderUsage[name])
	}
	return b.String()
}

// Report collects the results of a run in submission order.
type Report struct {
	Results []Result
	Stats   Stats
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	r.Stats.Total++
	if res.Success {
		r.Stats.Succeeded++
	} else {
		r.Stats.Failed++
	}
	if res.Provider != "" {
		if r.Stats.ProviderUsage == nil {
			r.Stats.ProviderUsage = map[string]int{}
		}
		r.Stats.ProviderUsage[res.Provider]++
	}
	r.Stats.CallDuration += res.Duration
}

// ResultMap returns batch results keyed by range, suitable for batcher.Merge.
func (r Report) ResultMap() map[batcher.Range][]string {
	out := make(map[batcher.Range][]string, len(r.Results))
	for _, res := range r.Results {
		out[res.Batch.Range()] = res.Lines
	}
	return out
}

// Batches returns the resolved batches with their updated attempt counts.
func (r Report) Batches() []batcher.Batch {
	out := make([]batcher.Batch, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Batch)
	}
	return out
}
