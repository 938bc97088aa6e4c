package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEntryID identifies an inspection entry.
	FieldEntryID = "entry_id"
	// FieldRoomID identifies a room number.
	FieldRoomID = "room"
	// FieldCollection names the store collection an operation touched.
	FieldCollection = "collection"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	FieldError  = "error"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	entryIDKey
)

// WithRequestID tags ctx with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation identifier stored in ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// WithEntryID tags ctx with the inspection entry being processed.
func WithEntryID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, entryIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := ctx.Value(entryIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldEntryID, id))
	}
	if rid, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
