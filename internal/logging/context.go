package logging

import (
	"context"
	"log/slog"

	"sublingo/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the structured logging key for dispatch run identifiers.
	FieldRunID = "run_id"
	// FieldBatchRange is the structured logging key for 1-based batch ranges (e.g. 11-20).
	FieldBatchRange = "batch_range"
	// FieldProvider is the structured logging key for the provider handling a call.
	FieldProvider = "provider"
	// FieldCorrelationID is the structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType names the event a log line records.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.ErrorKind for failed operations.
	FieldErrorKind = "error_kind"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressPercent is the completion percentage of a run.
	FieldProgressPercent = "progress_percent"
)

// ContextFields extracts the standard slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if rng, ok := services.BatchRangeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBatchRange, rng))
	}
	if name, ok := services.ProviderFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProvider, name))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
