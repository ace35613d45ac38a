package plugins

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/testutil"
)

func manifestFS() fstest.MapFS {
	return fstest.MapFS{
		"plugins/core/plugin.yaml":   {Data: []byte("name: core\nversion: 1.0.0\n"), ModTime: time.Unix(100, 0)},
		"plugins/ui/plugin.yaml":     {Data: []byte("name: ui\nrequires:\n  - name: core\n"), ModTime: time.Unix(100, 0)},
		"plugins/broken/plugin.yaml": {Data: []byte("name: [\n"), ModTime: time.Unix(100, 0)},
		"plugins/empty/README.md":    {Data: []byte("no manifest here")},
		"plugins/notes.txt":          {Data: []byte("not a plugin dir")},
		"extra/theme/plugin.yaml":    {Data: []byte("name: theme\n"), ModTime: time.Unix(100, 0)},
	}
}

func TestDiscoverManifests(t *testing.T) {
	manifests, err := DiscoverManifests(manifestFS(), []string{"plugins", "missing", "extra"})
	require.NoError(t, err)
	require.Equal(t, []string{
		"plugins/broken/plugin.yaml",
		"plugins/core/plugin.yaml",
		"plugins/ui/plugin.yaml",
		"extra/theme/plugin.yaml",
	}, manifests)
}

func TestManifestLoader_Load(t *testing.T) {
	l := NewManifestLoader(WithFS(manifestFS()))
	ctx := context.Background()

	d, err := l.Load(ctx, "plugins/core/plugin.yaml", nil)
	require.NoError(t, err)
	require.Equal(t, "core", d.Name())
	require.True(t, d.IsEnabled())

	d, err = l.Load(ctx, "plugins/ui/plugin.yaml", NewDisabledSet("ui"))
	require.NoError(t, err)
	require.False(t, d.IsEnabled())
	require.Equal(t, plugin.ReasonUserDisabled, d.Reason().Reason)
}

func TestManifestLoader_LoadErrors(t *testing.T) {
	l := NewManifestLoader(WithFS(manifestFS()))
	ctx := context.Background()

	_, err := l.Load(ctx, "plugins/broken/plugin.yaml", nil)
	require.ErrorIs(t, err, plugin.ErrPluginLoad)
	var le *plugin.PluginLoadError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "plugins/broken/plugin.yaml", le.File)

	_, err = l.Load(ctx, "plugins/nope/plugin.yaml", nil)
	require.ErrorIs(t, err, plugin.ErrPluginLoad)
}

func TestManifestLoader_LoadAllUsesPlaceholders(t *testing.T) {
	l := NewManifestLoader(WithFS(manifestFS()))

	descs, errs := l.LoadAll(context.Background(), []string{
		"plugins/core/plugin.yaml",
		"plugins/broken/plugin.yaml",
		"plugins/ui/plugin.yaml",
	}, nil)

	require.Len(t, errs, 1)
	require.Len(t, descs, 3)
	require.Equal(t, "broken", descs[1].Name())
	require.True(t, descs[1].IsPlaceholder())
	require.Equal(t, plugin.ReasonLoadFailed, descs[1].Reason().Reason)
	require.Equal(t, "ui", descs[2].Name())
}

func TestManifestLoader_CachesParsedManifests(t *testing.T) {
	fsys := manifestFS()
	l := NewManifestLoader(WithFS(fsys))
	ctx := context.Background()

	first, err := l.Load(ctx, "plugins/core/plugin.yaml", nil)
	require.NoError(t, err)
	second, err := l.Load(ctx, "plugins/core/plugin.yaml", nil)
	require.NoError(t, err)

	require.NotSame(t, first, second, "each load returns a fresh descriptor")
	stats := l.CacheStats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)

	// A changed modification time is a different cache key.
	fsys["plugins/core/plugin.yaml"] = &fstest.MapFile{Data: []byte("name: core\nversion: 2.0.0\n"), ModTime: time.Unix(200, 0)}
	third, err := l.Load(ctx, "plugins/core/plugin.yaml", nil)
	require.NoError(t, err)
	require.Equal(t, "2.0.0", third.Version().String())
}

func TestManifestLoader_WithoutCache(t *testing.T) {
	l := NewManifestLoader(WithFS(manifestFS()), WithoutCache())
	ctx := context.Background()

	for range 2 {
		_, err := l.Load(ctx, "plugins/core/plugin.yaml", nil)
		require.NoError(t, err)
	}
	require.Equal(t, int64(0), l.CacheStats().Hits)
}

func TestManifestLoader_Flush(t *testing.T) {
	l := NewManifestLoader(WithFS(manifestFS()))
	ctx := context.Background()

	_, err := l.Load(ctx, "plugins/core/plugin.yaml", nil)
	require.NoError(t, err)
	require.NoError(t, l.Flush(ctx))
	require.Equal(t, 0, l.CacheStats().Items)
}

func TestDisabledSet_Names(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, NewDisabledSet("b", "a", "b").Names())
}

func TestOSFS_NativePaths(t *testing.T) {
	b := testutil.NewBuilder(t).WithConflictScenario()
	want := b.Build()
	missing := filepath.Join(t.TempDir(), "missing")

	got, err := DiscoverManifests(OSFS(), []string{b.Root(), missing})
	require.NoError(t, err)
	require.Equal(t, want, got)

	d, err := NewManifestLoader().Load(context.Background(), got[0], nil)
	require.NoError(t, err)
	require.Equal(t, "A", d.Name())
	require.True(t, filepath.IsAbs(d.Source()))
}
