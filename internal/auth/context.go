package auth

import (
	"context"
)

type contextKey string

const callerIDKey contextKey = "callerID"

// ContextWithCallerID returns a new context carrying the authenticated
// caller. Authorization decisions are made per request against this identity
// and are never cached beyond the request's lifetime.
func ContextWithCallerID(ctx context.Context, id int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerIDKey, id)
}

// CallerIDFromContext retrieves the authenticated caller from the context.
func CallerIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	value := ctx.Value(callerIDKey)
	if value == nil {
		return 0, false
	}
	id, ok := value.(int64)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}
