package log

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)

	got := format(ts, LevelWarn, CatResolver, "plugin disabled", "plugin", "ui", "reason", "unmet-dependency", "orphan")

	require.Equal(t, "2025-12-06T10:45:00 [WARN] [resolver] plugin disabled plugin=ui reason=unmet-dependency orphan=<missing>\n", got)
}

func TestLog_RespectsLevelAndEnabled(t *testing.T) {
	var buf bytes.Buffer
	cleanup := InitWriter(&buf)
	defer cleanup()

	SetMinLevel(LevelInfo)
	Debug(CatTree, "hidden")
	Info(CatTree, "inserted", "path", "/Home/Menu")
	SetEnabled(false)
	Error(CatTree, "also hidden")
	SetEnabled(true)
	ErrorErr(CatDB, "save failed", errors.New("disk full"))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[INFO] [tree] inserted path=/Home/Menu")
	require.Contains(t, out, "[ERROR] [db] save failed error=disk full")
}

func TestLog_NoLoggerIsSilent(t *testing.T) {
	setDefault(nil)
	require.NotPanics(t, func() {
		Info(CatPlugin, "nobody listens")
	})
	require.Nil(t, NewListener(context.Background()))
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)

	Info(CatConfig, "loaded", "file", "config.yaml")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [config] loaded file=config.yaml")
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	cleanup := InitWriter(&bytes.Buffer{})
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Warn(CatWatcher, "manifest changed", "file", "plugin.yaml")

	event, ok := listener.Next()
	require.True(t, ok)
	require.Contains(t, event.Payload, "[WARN] [watcher] manifest changed file=plugin.yaml")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("Warning")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}
