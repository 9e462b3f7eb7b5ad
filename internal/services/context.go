package services

import "context"

type contextKey string

const (
	sourceRefKey contextKey = "source_ref"
	requestIDKey contextKey = "request_id"
)

// WithSourceRef annotates context with the source clip reference.
func WithSourceRef(ctx context.Context, ref string) context.Context {
	if ref == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceRefKey, ref)
}

// SourceRefFromContext extracts the source clip reference if present.
func SourceRefFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceRefKey).(string); ok && v != "" {
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
