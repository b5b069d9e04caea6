package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration        = errors.New("configuration error")
	ErrTransport            = errors.New("transport error")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrCountMismatch        = errors.New("count mismatch")
	ErrResidualSourceScript = errors.New("residual source script")
	ErrResultMismatch       = errors.New("result mismatch")
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrTimeout              = errors.New("timeout")
	ErrTransient            = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorKind returns a short, stable classification used in logs and the run
// history. Unknown errors map to "unknown".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrCountMismatch):
		return "count_mismatch"
	case errors.Is(err, ErrResidualSourceScript):
		return "residual_source_script"
	case errors.Is(err, ErrResultMismatch):
		return "result_mismatch"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}

// IsCallFailure reports whether err is a per-call failure that should fall
// through to the next provider or retry round rather than stop the run.
func IsCallFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
