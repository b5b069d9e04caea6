package validate

import (
	"encoding/json"
	"fmt"

	"sublingo/internal/sanitize"
	"sublingo/internal/services"
	"sublingo/internal/services/llm"
)

const previewRunes = 50

// Outcome is the result of validating one raw reply.
type Outcome struct {
	OK    bool
	Lines []string
	// Reason wraps one of services.ErrMalformedResponse, ErrCountMismatch, or
	// ErrResidualSourceScript when OK is false.
	Reason error
	// LineIndex is the 1-based offending line for residual-script failures.
	LineIndex int
	Preview   string
}

// Validate decodes raw as a JSON array of strings and checks it against the
// expected count and the source-script ranges.
func Validate(raw string, expected int, strict bool) Outcome {
	lines, err := decodeLines(raw)
	if err != nil {
		return Outcome{Reason: services.Wrap(services.ErrMalformedResponse, "validate", "decode", "", err)}
	}
	if len(lines) != expected {
		msg := fmt.Sprintf("expected %d lines, got %d", expected, len(lines))
		return Outcome{Reason: services.Wrap(services.ErrCountMismatch, "validate", "count", msg, nil)}
	}
	for i, line := range lines {
		if ContainsSourceScript(line, strict) {
			preview := truncateRunes(line, previewRunes)
			msg := fmt.Sprintf("line %d still contains source script: %s", i+1, preview)
			return Outcome{
				Reason:    services.Wrap(services.ErrResidualSourceScript, "validate", "script", msg, nil),
				LineIndex: i + 1,
				Preview:   preview,
			}
		}
	}
	cleaned := make([]string, len(lines))
	for i, line := range lines {
		cleaned[i] = sanitize.Sanitize(line)
	}
	return Outcome{OK: true, Lines: cleaned}
}

// decodeLines accepts a JSON array whose elements are strings or scalars.
// Other elements are kept as their JSON text; null becomes "".
func decodeLines(raw string) ([]string, error) {
	var items []json.RawMessage
	if err := llm.DecodeLLMJSON(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, fmt.Errorf("payload is not an array")
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = stringify(item)
	}
	return lines, nil
}

func stringify(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	text := string(item)
	if text == "null" {
		return ""
	}
	return text
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
