// Package contextkeys provides centralized context key definitions.
// All context keys used across the application are defined here so key usage
// stays discoverable and collision-free.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// UserKey contains the authenticated *auth.User
	// Set by: middleware.Authenticator.RequireUser
	// Required by: all guarded endpoints
	UserKey Key = "current_user"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.AccessLogMiddleware
	// Used by: logger, error rendering
	RequestIDKey Key = "request_id"
)

// WithUser adds the authenticated user to the context.
func WithUser(ctx context.Context, user interface{}) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// User retrieves the authenticated user from the context, or nil.
func User(ctx context.Context) interface{} {
	return ctx.Value(UserKey)
}

// WithRequestID adds the request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context, or "".
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
