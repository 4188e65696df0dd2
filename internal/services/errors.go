package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"curator/internal/queue"
)

// Markers classify failures. Wrap attaches exactly one of them.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

var errorClasses = []struct {
	target error
	label  string
}{
	{ErrConfiguration, "configuration"},
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrTimeout, "timeout"},
	{ErrExternalTool, "external_tool"},
	{context.Canceled, "canceled"},
}

// Wrap tags err with marker and prefixes the non-blank stage, operation and
// message parts. A nil marker means ErrTransient; a nil err is allowed.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinNonBlank(": ", stage, operation, message)
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// FailureStatus maps a pipeline error to the queue status stored for the item.
// A canceled item goes back to pending.
func FailureStatus(err error) queue.Status {
	if errors.Is(err, context.Canceled) {
		return queue.StatusPending
	}
	return queue.StatusFailed
}

// ErrorClass returns a short label for the marker carried by err, "transient"
// when none matches and "" for nil.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.label
		}
	}
	return "transient"
}

func joinNonBlank(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
