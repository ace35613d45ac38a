package tracing

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func endedSpans(t *testing.T, fn func(tr trace.Tracer)) []sdktrace.ReadOnlySpan {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	fn(tp.Tracer("test"))
	require.NoError(t, tp.Shutdown(context.Background()))
	return sr.Ended()
}

func TestNewFileExporter_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "traces.jsonl")

	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestFileExporter_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"existing":true}`+"\n"), 0o600))

	spans := endedSpans(t, func(tr trace.Tracer) {
		ctx, parent := tr.Start(context.Background(), SpanLoad)
		_, child := tr.Start(ctx, SpanResolve, trace.WithAttributes(attribute.String(AttrPluginName, "ui")))
		child.AddEvent(EventPluginDisabled, trace.WithAttributes(attribute.String(AttrReason, "conflict")))
		child.End()
		parent.End()
	})

	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	require.NoError(t, exp.ExportSpans(context.Background(), spans))
	require.NoError(t, exp.ExportSpans(context.Background(), nil))
	require.NoError(t, exp.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, `{"existing":true}`, lines[0])

	var child SpanRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &child))
	require.Equal(t, SpanResolve, child.Name)
	require.NotEmpty(t, child.ParentSpanID)
	require.Equal(t, "ui", child.Attributes[AttrPluginName])
	require.Len(t, child.Events, 1)
	require.Equal(t, EventPluginDisabled, child.Events[0].Name)
	require.Equal(t, "conflict", child.Events[0].Attributes[AttrReason])

	var parent SpanRecord
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &parent))
	require.Empty(t, parent.ParentSpanID)
	require.Equal(t, child.TraceID, parent.TraceID)
	require.Equal(t, "UNSET", parent.Status)
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()), "shutdown is idempotent")

	spans := endedSpans(t, func(tr trace.Tracer) {
		_, s := tr.Start(context.Background(), "late")
		s.End()
	})
	require.Error(t, exp.ExportSpans(context.Background(), spans))
}
