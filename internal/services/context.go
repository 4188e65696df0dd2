package services

import "context"

type ctxKey int

const (
	itemIDKey ctxKey = iota
	stageKey
	contentKey
	requestIDKey
)

// ContentRef names the platform item a pipeline step is working on.
type ContentRef struct {
	Platform  string
	ContentID string
}

func (r ContentRef) isZero() bool { return r.Platform == "" && r.ContentID == "" }

// WithItemID stamps ctx with the queue item id.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithStage stamps ctx with a pipeline stage. A blank stage leaves ctx untouched.
func WithStage(ctx context.Context, stage string) context.Context {
	return withNonZero(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return nonZeroValue[string](ctx, stageKey)
}

// WithContent stamps ctx with the platform and content id being processed.
func WithContent(ctx context.Context, platform, contentID string) context.Context {
	ref := ContentRef{Platform: platform, ContentID: contentID}
	if ref.isZero() {
		return ctx
	}
	return context.WithValue(ctx, contentKey, ref)
}

func ContentFromContext(ctx context.Context) (ContentRef, bool) {
	ref, ok := ctx.Value(contentKey).(ContentRef)
	return ref, ok
}

// WithRequestID stamps ctx with the correlation id shared by one item's log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withNonZero(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return nonZeroValue[string](ctx, requestIDKey)
}

func withNonZero[T comparable](ctx context.Context, key ctxKey, value T) context.Context {
	var zero T
	if value == zero {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func nonZeroValue[T comparable](ctx context.Context, key ctxKey) (T, bool) {
	var zero T
	v, ok := ctx.Value(key).(T)
	if !ok || v == zero {
		return zero, false
	}
	return v, true
}
