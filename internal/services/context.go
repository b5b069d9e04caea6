package services

import (
	"context"
	"fmt"
)

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	batchRangeKey contextKey = "batch_range"
	providerKey   contextKey = "provider"
	requestIDKey  contextKey = "request_id"
)

// WithRunID annotates context with the dispatch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the dispatch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatchRange annotates context with the 1-based inclusive batch range.
func WithBatchRange(ctx context.Context, start, end int) context.Context {
	if start <= 0 || end < start {
		return ctx
	}
	return context.WithValue(ctx, batchRangeKey, fmt.Sprintf("%d-%d", start, end))
}

// BatchRangeFromContext returns the batch range label if present.
func BatchRangeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchRangeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithProvider annotates context with the provider handling the call.
func WithProvider(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, providerKey, name)
}

// ProviderFromContext returns the provider name if present.
func ProviderFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(providerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
