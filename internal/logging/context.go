package logging

import (
	"context"
	"log/slog"

	"curator/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent     = "component"
	FieldItemID        = "item_id"
	FieldStage         = "stage"
	FieldPlatform      = "platform"
	FieldContentID     = "content_id"
	FieldSource        = "source"
	FieldCorrelationID = "correlation_id"

	// FieldEventType classifies a line for `curator logs --event`.
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	// FieldDecisionType marks lines that record a branch the pipeline took.
	FieldDecisionType = "decision_type"
)

// ContextFields returns the item, stage, content and correlation attributes
// stored in ctx, in that order.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldItemID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if ref, ok := services.ContentFromContext(ctx); ok {
		fields = appendNonEmpty(fields, FieldPlatform, ref.Platform)
		fields = appendNonEmpty(fields, FieldContentID, ref.ContentID)
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext binds the ContextFields of ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}

func appendNonEmpty(fields []slog.Attr, key, value string) []slog.Attr {
	if value == "" {
		return fields
	}
	return append(fields, slog.String(key, value))
}
