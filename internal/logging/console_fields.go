package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const maxInfoValueLen = 200

// infoHighlightKeys are listed first, in this order, when present.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	"error",
	FieldErrorKind,
	FieldErrorHint,
	FieldImpact,
	"source_file",
	"project_file",
	"lines",
	"batches",
	"chunk_size",
	"success",
	"attempts",
	"completed",
	"total",
	FieldProgressPercent,
	"duration",
	"elapsed",
	"reason",
}

// selectInfoFields returns formatted info-level fields: highlight keys first,
// then the rest in record order. Debug-only keys are dropped.
func selectInfoFields(attrs []kv) []infoField {
	if len(attrs) == 0 {
		return nil
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			used[idx] = true
			result = append(result, infoField{label: displayLabel(attr.key), value: formatInfoValue(attr.key, attr.value)})
			break
		}
	}
	for idx, attr := range attrs {
		if used[idx] || skipInfoKey(attr.key) || isDebugOnlyKey(attr.key) {
			continue
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: formatInfoValue(attr.key, attr.value)})
	}
	return result
}

func formatInfoValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case key == FieldProgressPercent && v.Kind() == slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 1, 64) + "%"
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if len(value) > maxInfoValueLen {
		value = value[:maxInfoValueLen] + "…"
	}
	return value
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldRunID, FieldBatchRange, FieldProvider:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldCorrelationID, "endpoint", "model", "status_code", "payload_preview":
		return true
	}
	return strings.HasSuffix(key, "_id")
}

func alwaysShownLabel(label string) bool {
	switch label {
	case "Alert", "Error", "Event":
		return true
	default:
		return false
	}
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorKind:
		return "Error Kind"
	case FieldErrorHint:
		return "Hint"
	case FieldProgressPercent:
		return "Progress"
	case "source_file":
		return "Source"
	case "project_file":
		return "Project"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
