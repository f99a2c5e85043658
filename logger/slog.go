package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures the application logger.
type Options struct {
	Service   string
	Env       string
	Level     string
	Format    string // "json" or "text"
	AddSource bool
	Output    io.Writer
}

// NewStructured builds the application logger, installs it as the slog
// default and returns it. Output defaults to os.Stderr so command output
// on stdout stays clean.
func NewStructured(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}

	base := slog.New(h)
	if opts.Service != "" {
		base = base.With("service", opts.Service)
	}
	if opts.Env != "" {
		base = base.With("env", opts.Env)
	}

	slog.SetDefault(base)
	return base
}

// ParseLevel maps a level name to a slog.Level. Unknown names are Info.
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
