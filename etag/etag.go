// Package etag provides an HTTP middleware that calculates and sets
// ETag headers for GET and HEAD requests. It can optionally use a cache to
// answer conditional requests without running the handler and supports
// weak ETags.
//
// Clients revalidate with If-None-Match. When the content has not
// changed the middleware responds with 304 Not Modified and no body.
//
// Usage:
//
//	et := etag.New(etag.WithWeak(true))
//	http.ListenAndServe(":8080", et.Handler(mux))
//
// The cache is keyed by request URI and must only be enabled for pages
// whose body depends on nothing but the URI.
package etag

import (
	"bytes"
	"fmt"
	"hash/crc64"
	"net/http"
	"strings"
	"sync"
)

var table = crc64.MakeTable(crc64.ECMA)

// responseWriter buffers the body and computes its CRC64 checksum.
type responseWriter struct {
	http.ResponseWriter
	buffer     bytes.Buffer
	checksum   uint64
	statusCode int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.checksum = crc64.Update(w.checksum, table, b)
	return w.buffer.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
}

// ETag is a middleware that calculates ETag headers.
type ETag struct {
	cache    sync.Map
	useCache bool
	isWeak   bool
}

type config func(*ETag)

// WithWeak configures whether the ETag should be weak (prefixed with W/).
func WithWeak(isWeak bool) config {
	return config(func(e *ETag) {
		e.isWeak = isWeak
	})
}

// WithCache enables or disables caching of ETags by request URI.
func WithCache(useCache bool) config {
	return config(func(e *ETag) {
		e.useCache = useCache
	})
}

// New creates a new ETag middleware.
func New(cfgs ...config) *ETag {
	e := &ETag{}

	for _, cfg := range cfgs {
		cfg(e)
	}

	return e
}

// Handler wraps next. Only 200 responses without an ETag of their own are
// tagged; everything else passes through unchanged.
func (e *ETag) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		uri := r.URL.RequestURI()
		ifNoneMatch := r.Header.Get("If-None-Match")

		if e.useCache {
			if cached, ok := e.cache.Load(uri); ok && matches(ifNoneMatch, cached.(string)) {
				w.Header().Set("ETag", cached.(string))
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		status := rw.statusCode
		if status == 0 {
			status = http.StatusOK
		}

		if status == http.StatusOK && w.Header().Get("ETag") == "" {
			tag := e.format(rw.checksum)

			if e.useCache {
				e.cache.Store(uri, tag)
			}

			w.Header().Set("ETag", tag)

			if matches(ifNoneMatch, tag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		w.WriteHeader(status)
		w.Write(rw.buffer.Bytes())
	})
}

func (e *ETag) format(checksum uint64) string {
	if e.isWeak {
		return fmt.Sprintf(`W/"%x"`, checksum)
	}
	return fmt.Sprintf(`"%x"`, checksum)
}

// matches implements the weak comparison If-None-Match calls for.
func matches(header, tag string) bool {
	if header == "" {
		return false
	}

	want := strings.TrimPrefix(tag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
