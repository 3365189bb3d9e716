// ABOUTME: This file builds the service slog logger (JSON, lower-case levels)
// ABOUTME: Optionally tees to a log file and to OpenTelemetry via the otelslog bridge
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const ServiceName = "ad-monitor"

// Logger is the process-wide logger, replaced by New during bootstrap.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))

// Options configures New.
type Options struct {
	ServiceName string
	Version     string
	Level       string
	LogFile     string
	EnableOTel  bool
	Output      io.Writer
}

// New creates the service logger and returns a function closing the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = ServiceName
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	closer := func() error { return nil }
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", opts.LogFile, err)
		}
		out = io.MultiWriter(out, f)
		closer = f.Close
	}

	level := ParseLevel(opts.Level)
	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	})
	if opts.EnableOTel {
		handler = newBridgeHandler(handler, opts.ServiceName, level)
	}
	handler = NewContextHandler(handler)

	l := slog.New(handler).With("service", opts.ServiceName, "version", opts.Version)
	return l, closer, nil
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, strings.ToLower(level.String()))
		}
	}
	return a
}
