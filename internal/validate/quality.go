package validate

import (
	"fmt"
	"strings"
)

const (
	minLengthRatio   = 0.3
	maxLengthRatio   = 3.0
	overlapThreshold = 0.8
	overlapMinRunes  = 5
)

// Issue describes one advisory quality finding for a line.
type Issue struct {
	// Index is the zero-based position within the checked slice.
	Index  int
	Reason string
}

// Quality runs advisory checks over translated lines.
type Quality struct {
	Strict bool
}

// CheckBatch compares originals with translations position by position and
// returns one issue per suspicious line. The slices must have equal length.
func (q Quality) CheckBatch(originals, translations []string) ([]Issue, error) {
	if len(originals) != len(translations) {
		return nil, fmt.Errorf("quality check: %d originals vs %d translations", len(originals), len(translations))
	}
	var issues []Issue
	for i := range originals {
		if reason := q.checkLine(originals[i], translations[i]); reason != "" {
			issues = append(issues, Issue{Index: i, Reason: reason})
		}
	}
	return issues, nil
}

func (q Quality) checkLine(original, translated string) string {
	if strings.TrimSpace(translated) == "" {
		if strings.TrimSpace(original) == "" {
			return ""
		}
		return "empty translation"
	}
	if ContainsSourceScript(translated, q.Strict) {
		return "contains source script"
	}
	if ratio, ok := lengthRatio(original, translated); !ok {
		return fmt.Sprintf("unusual length ratio: %.2f", ratio)
	}
	if likelyUntranslated(original, translated) {
		return "possibly untranslated"
	}
	return ""
}

func lengthRatio(original, translated string) (float64, bool) {
	o := len([]rune(original))
	if o == 0 {
		return 0, true
	}
	ratio := float64(len([]rune(translated))) / float64(o)
	return ratio, ratio >= minLengthRatio && ratio <= maxLengthRatio
}

func likelyUntranslated(original, translated string) bool {
	if original == translated {
		return true
	}
	orig := []rune(original)
	if len(orig) <= overlapMinRunes {
		return false
	}
	trans := []rune(translated)
	same := 0
	for i := 0; i < len(orig) && i < len(trans); i++ {
		if orig[i] == trans[i] {
			same++
		}
	}
	return float64(same)/float64(len(orig)) > overlapThreshold
}
