package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	TraceIDKey     contextKey = "trace_id"
	UserIDKey      contextKey = "user_id"
	AccessTokenKey contextKey = "access_token"
)

// NewTraceID returns a fresh request trace id.
func NewTraceID() string {
	return uuid.NewString()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

// WithAccessToken stores the caller's raw bearer token so the storage layer can scope
// its upstream requests to that principal.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, AccessTokenKey, token)
}

func GetAccessToken(ctx context.Context) string {
	return stringValue(ctx, AccessTokenKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
