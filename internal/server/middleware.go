package server

import (
	"context"
	"net/http"
	"strings"

	"selfserve-cloud-portal/internal/session"
)

type contextKey struct{ name string }

var sessionKey = contextKey{"session"}

// SessionFromContext returns the authenticated session stored by SessionAuth.
// Returns nil outside of routes guarded by the middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// extractBearerToken extracts the token from a Bearer Authorization header.
// Returns the token string and true if successful, or empty string and false if not.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SessionAuth validates the bearer session token and requires the session to
// be authenticated. The session snapshot is stored in the request context for
// handlers. Missing, unknown, expired, or still-anonymous sessions get 401.
func SessionAuth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				Unauthorized(w, "Authorization header required")
				return
			}
			sess, ok := sessions.Lookup(token)
			if !ok || !sess.Authenticated() {
				Unauthorized(w, "Not authenticated")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
