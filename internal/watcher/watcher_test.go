package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/plugtree/internal/watcher"
)

func writeManifest(t *testing.T, root, plugin, body string) string {
	t.Helper()
	dir := filepath.Join(root, plugin)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, watcher.DefaultManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func startWatcher(t *testing.T, root string) <-chan watcher.Change {
	t.Helper()
	cfg := watcher.DefaultConfig(root)
	cfg.DebounceDur = 50 * time.Millisecond
	w, err := watcher.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	changes, err := w.Start()
	require.NoError(t, err)
	return changes
}

func waitChange(t *testing.T, changes <-chan watcher.Change) watcher.Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
		return watcher.Change{}
	}
}

func TestWatcher_DebouncesManifestWrites(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "core", "name: core\n")
	changes := startWatcher(t, root)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("name: core\nversion: 1.0.%d\n", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	change := waitChange(t, changes)
	require.Equal(t, []string{path}, change.Paths)

	select {
	case <-changes:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "core", "name: core\n")
	other := filepath.Join(root, "core", "README.md")
	require.NoError(t, os.WriteFile(other, []byte("readme"), 0o644))
	changes := startWatcher(t, root)

	require.NoError(t, os.WriteFile(other, []byte("changed"), 0o644))

	select {
	case <-changes:
		t.Fatal("unexpected notification for a non-manifest file")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_NewPluginDirectory(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root)

	require.NoError(t, os.Mkdir(filepath.Join(root, "skin"), 0o755))
	first := waitChange(t, changes)
	require.Contains(t, first.Paths, filepath.Join(root, "skin", watcher.DefaultManifestName))

	// The new directory is watched, so writing its manifest is reported.
	time.Sleep(20 * time.Millisecond)
	path := filepath.Join(root, "skin", watcher.DefaultManifestName)
	require.NoError(t, os.WriteFile(path, []byte("name: skin\n"), 0o644))
	second := waitChange(t, changes)
	require.Equal(t, []string{path}, second.Paths)
}

func TestWatcher_RemovedManifest(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "core", "name: core\n")
	changes := startWatcher(t, root)

	require.NoError(t, os.Remove(path))

	change := waitChange(t, changes)
	require.Equal(t, []string{path}, change.Paths)
}

func TestWatcher_Stop(t *testing.T) {
	root := t.TempDir()
	w, err := watcher.New(watcher.DefaultConfig(root))
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}

func TestNew_RequiresDirs(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}

func TestWatcher_StartFailsForMissingDir(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/plugins", "/more")

	require.Equal(t, []string{"/plugins", "/more"}, cfg.Dirs)
	require.Equal(t, watcher.DefaultManifestName, cfg.ManifestName)
	require.Equal(t, 500*time.Millisecond, cfg.DebounceDur)
}
