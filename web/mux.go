package web

import (
	"net/http"
	"net/url"
	"strings"
)

// ServeMux is a wrapper around http.ServeMux that adds route grouping and
// middlewares.
//
// Usage:
//
//	mux := web.NewServeMux()
//
//	// Global middleware for all routes
//	mux.Use(logger.New())
//
//	// Route group with prefix "/checkout" and additional middleware
//	co := mux.Group("/checkout", RequireSession(sessions))
//	co.HandleFunc("POST /{$}", begin)
//
//	http.ListenAndServe(":8080", mux)
type ServeMux struct {
	*http.ServeMux
	middlewares []Middleware
}

// NewServeMux creates a new ServeMux instance.
func NewServeMux() *ServeMux {
	return &ServeMux{
		ServeMux: http.NewServeMux(),
	}
}

// Group creates a sub-router mounted at prefix. Handlers registered on it
// see paths relative to prefix, with the bare prefix itself served as "/",
// and run behind the given middlewares.
func (mux *ServeMux) Group(prefix string, middlewares ...Middleware) *ServeMux {
	prefix = strings.TrimSuffix(prefix, "/")
	subMux := NewServeMux()

	var wrapped http.Handler = subMux

	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i].Handler(wrapped)
	}

	stripped := stripPrefix(prefix, wrapped)
	mux.Handle(prefix+"/", stripped)
	if prefix != "" {
		mux.Handle(prefix, stripped)
	}
	return subMux
}

// Use adds a global middleware to the ServeMux. These middlewares are applied
// to all routes registered on this mux.
func (mux *ServeMux) Use(mw Middleware) {
	mux.middlewares = append(mux.middlewares, mw)
}

// ServeHTTP implements http.Handler and applies global middlewares
// before dispatching to the underlying http.ServeMux.
func (mux *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var wrapped http.Handler = mux.ServeMux

	for i := len(mux.middlewares) - 1; i >= 0; i-- {
		wrapped = mux.middlewares[i].Handler(wrapped)
	}

	wrapped.ServeHTTP(w, r)
}

// stripPrefix is http.StripPrefix except that the bare prefix maps to "/"
// instead of an empty path, which http.ServeMux would answer with a
// redirect.
func stripPrefix(prefix string, h http.Handler) http.Handler {
	if prefix == "" {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, prefix)
		if len(p) == len(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		if p == "" {
			p = "/"
		}

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = p
		r2.URL.RawPath = ""
		h.ServeHTTP(w, r2)
	})
}
