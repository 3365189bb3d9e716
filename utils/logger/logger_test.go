package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, closeFn, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	l.Warn("something happened", "url", "https://example.com")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "something happened", lines[0]["msg"])
	assert.Equal(t, ServiceName, lines[0]["service"])
	assert.Equal(t, "1.0.0", lines[0]["version"])
	assert.Equal(t, "https://example.com", lines[0]["url"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	l.Info("dropped")
	l.Error("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestNew_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Output: &buf})
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCycleID(ctx, "cycle-9")
	ctx = WithWorker(ctx, 2)
	ctx = WithOperation(ctx, "fetch")
	l.InfoContext(ctx, "with context")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "cycle-9", lines[0]["cycle_id"])
	assert.Equal(t, float64(2), lines[0]["worker"])
	assert.Equal(t, "fetch", lines[0]["operation"])
	assert.Equal(t, "req-1", RequestIDFrom(ctx))
}

func TestNew_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Output: &buf})
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	l.InfoContext(ctx, "traced")
	span.End()

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), lines[0]["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), lines[0]["span_id"])
}

func TestNew_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.log")
	var buf bytes.Buffer
	l, closeFn, err := New(Options{Output: &buf, LogFile: path})
	require.NoError(t, err)

	l.Info("to both")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestNew_OTelBridge(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Output: &buf, EnableOTel: true})
	require.NoError(t, err)

	l.Info("still written locally")
	assert.Contains(t, buf.String(), "still written locally")
	_, ok := l.Handler().(*ContextHandler)
	assert.True(t, ok)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

type capturingHandler struct {
	records *[]slog.Record
}

func (h capturingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h capturingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h capturingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h capturingHandler) WithGroup(string) slog.Handler { return h }

func TestBridgeHandler_ExportsAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	var exported []slog.Record
	h := &bridgeHandler{
		local:  slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		remote: capturingHandler{records: &exported},
		level:  slog.LevelWarn,
	}
	l := slog.New(h).With("cycle", "c1")

	l.Debug("local only")
	l.Warn("both")

	assert.Len(t, decodeLines(t, &buf), 2)
	require.Len(t, exported, 1)
	assert.Equal(t, "both", exported[0].Message)
}
