package web

import (
	"net/http"

	"github.com/bluescreen10/storefront/session"
)

// Middleware defines the interface for HTTP middleware compatible with ServeMux.
// *logger.Logger and *etag.ETag satisfy it.
type Middleware interface {
	Handler(http.Handler) http.Handler
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(http.Handler) http.Handler

func (f MiddlewareFunc) Handler(next http.Handler) http.Handler {
	return f(next)
}

// Sessions exposes the current login. *session.Store satisfies it.
type Sessions interface {
	Current() (session.Session, bool)
	IsAuthenticated() bool
}

var _ Sessions = (*session.Store)(nil)

// RequireSession rejects requests with 401 unless a session is active.
func RequireSession(s Sessions) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.IsAuthenticated() {
				http.Error(w, "login required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}
