package logging

import (
	"context"
	"log/slog"

	"clipsmith/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSourceRef is the standardized structured logging key for source clip references.
	FieldSourceRef = "source_ref"
	// FieldRequestID is the standardized structured logging key for analysis request ids.
	FieldRequestID = "request_id"
	// FieldEventType tags log records with a machine-readable event name.
	FieldEventType = "event_type"
)

// WithContext enriches a logger with source reference and request id values
// carried in ctx. A nil logger yields a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if ref, ok := services.SourceRefFromContext(ctx); ok {
		logger = logger.With(String(FieldSourceRef, ref))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		logger = logger.With(String(FieldRequestID, id))
	}
	return logger
}
