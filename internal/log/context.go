package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	requestIDKey      ctxKey = "request_id"
	conversationIDKey ctxKey = "conversation_id"
)

// ContextWithRequestID stores the provided request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithConversationID stores the chat conversation ID in the context.
func ContextWithConversationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, conversationIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ConversationIDFromContext extracts the conversation ID from context if present.
func ConversationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(conversationIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the supplied logger with correlation fields from ctx.
// The result is a pointer so callers can chain level methods directly.
func WithContext(ctx context.Context, logger zerolog.Logger) *zerolog.Logger {
	if ctx == nil {
		return &logger
	}
	builder := logger.With()
	if rid := RequestIDFromContext(ctx); rid != "" {
		builder = builder.Str("request_id", rid)
	}
	if cid := ConversationIDFromContext(ctx); cid != "" {
		builder = builder.Str("conversation_id", cid)
	}
	l := builder.Logger()
	return &l
}
