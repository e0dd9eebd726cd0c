package httputil

import (
	"context"
	"net/http"
)

// contextKey keeps request-scoped values out of other packages' keyspaces.
type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a copy of the request whose context carries the
// authenticated caller's id. The auth middleware is the only writer.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID reads the authenticated caller's id back out of the request
// context. Empty string means the auth middleware never ran.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
