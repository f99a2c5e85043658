// Package logger provides the application logger and an HTTP access log
// middleware.
//
// Access log entries are built from a format with the variables ${time},
// ${status}, ${latency}, ${ip}, ${method}, ${path} and ${error}. ${error}
// is the status text of 4xx and 5xx responses and empty otherwise. When a
// slog.Logger is configured the same fields are logged as a structured
// record instead.
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		w.Write([]byte("Hello, world!"))
//	})
//
//	l := logger.New(
//	    logger.WithFormat("${time} | ${status} | ${latency} | ${method} | ${path}\n"),
//	    logger.WithOutput(os.Stderr),
//	)
//
//	http.ListenAndServe(":8080", l.Handler(mux))
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultFormat = "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n"

// responseWriter captures the status code written by the wrapped handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logger is an access log middleware.
type Logger struct {
	format string
	output io.Writer
	slog   *slog.Logger
}

type config func(*Logger)

// WithFormat sets a custom log format using template variables.
func WithFormat(format string) config {
	return config(func(l *Logger) {
		l.format = format
	})
}

// WithOutput sets the output destination for log entries.
// (default os.Stdout.)
func WithOutput(output io.Writer) config {
	return config(func(l *Logger) {
		l.output = output
	})
}

// WithSlog logs each request as a structured record on logger instead of
// a formatted line.
func WithSlog(logger *slog.Logger) config {
	return config(func(l *Logger) {
		l.slog = logger
	})
}

// New creates a new Logger middleware with optional configuration.
func New(cfgs ...config) *Logger {
	lgr := &Logger{
		format: defaultFormat,
		output: os.Stdout,
	}

	for _, cfg := range cfgs {
		cfg(lgr)
	}

	return lgr
}

// Handler wraps next and logs every request it serves.
func (l *Logger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		latency := time.Since(start)
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		var errText string
		if rw.statusCode >= 400 {
			errText = http.StatusText(rw.statusCode)
		}

		if l.slog != nil {
			level := slog.LevelInfo
			if rw.statusCode >= 500 {
				level = slog.LevelError
			} else if rw.statusCode >= 400 {
				level = slog.LevelWarn
			}
			l.slog.LogAttrs(r.Context(), level, "http request",
				slog.Int("status", rw.statusCode),
				slog.Duration("latency", latency),
				slog.String("ip", ip),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", errText),
			)
			return
		}

		replacer := strings.NewReplacer(
			"${time}", start.Format(time.DateTime),
			"${status}", strconv.Itoa(rw.statusCode),
			"${latency}", latency.String(),
			"${ip}", ip,
			"${method}", r.Method,
			"${path}", r.URL.Path,
			"${error}", errText,
		)

		fmt.Fprint(l.output, replacer.Replace(l.format))
	})
}
