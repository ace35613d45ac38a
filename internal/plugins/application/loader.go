package plugins

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zjrosen/plugtree/internal/cachemanager"
	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/log"
	"github.com/zjrosen/plugtree/internal/paths"
)

// DefaultManifestTTL is how long a parsed manifest stays cached.
const DefaultManifestTTL = 10 * time.Minute

// osFS reads from the host file system with native, usually absolute, paths.
// That breaks the fs.ValidPath naming rule, so it is only safe with helpers
// that hand names straight to its methods: fs.ReadFile, fs.Stat and
// fs.ReadDir do, fs.WalkDir and fs.Sub do not. Use os.DirFS for a conforming
// file system rooted at a directory.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) {
	return os.Open(name) // #nosec G304 -- manifest paths come from configured plugin dirs
}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) // #nosec G304 -- manifest paths come from configured plugin dirs
}

func (osFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

// OSFS returns the file system used when none is configured. It accepts
// native paths as produced by filepath.Join; see osFS for its limits.
func OSFS() fs.FS { return osFS{} }

// manifestKey identifies one version of a manifest file.
type manifestKey string

func newManifestKey(path string, info fs.FileInfo) manifestKey {
	return manifestKey(fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size()))
}

// DisabledSet holds plugin names disabled by the user.
type DisabledSet map[string]bool

// NewDisabledSet creates a set from names.
func NewDisabledSet(names ...string) DisabledSet {
	s := make(DisabledSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Names returns the members, sorted.
func (s DisabledSet) Names() []string {
	names := make([]string, 0, len(s))
	for n, on := range s {
		if on {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// ManifestLoader turns manifest files into descriptors.
type ManifestLoader struct {
	fsys  fs.FS
	ttl   time.Duration
	cache *cachemanager.InMemoryCacheManager[manifestKey, *ManifestFile]
	read  *cachemanager.ReadThroughCache[manifestKey, *ManifestFile, string]
}

// LoaderOption configures a ManifestLoader.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	fsys      fs.FS
	ttl       time.Duration
	skipCache bool
}

// WithFS reads manifests from fsys instead of the host file system.
func WithFS(fsys fs.FS) LoaderOption {
	return func(c *loaderConfig) { c.fsys = fsys }
}

// WithCacheTTL sets how long parsed manifests are kept.
func WithCacheTTL(ttl time.Duration) LoaderOption {
	return func(c *loaderConfig) { c.ttl = ttl }
}

// WithoutCache parses every manifest on every load.
func WithoutCache() LoaderOption {
	return func(c *loaderConfig) { c.skipCache = true }
}

// NewManifestLoader creates a loader.
func NewManifestLoader(opts ...LoaderOption) *ManifestLoader {
	cfg := loaderConfig{fsys: osFS{}, ttl: DefaultManifestTTL}
	for _, opt := range opts {
		opt(&cfg)
	}

	l := &ManifestLoader{fsys: cfg.fsys, ttl: cfg.ttl}
	l.cache = cachemanager.NewInMemoryCacheManager[manifestKey, *ManifestFile]("manifests", cfg.ttl, 2*cfg.ttl)
	l.read = cachemanager.NewReadThroughCache[manifestKey, *ManifestFile, string](l.cache, l.parse, cfg.skipCache)
	return l
}

func (l *ManifestLoader) parse(_ context.Context, path string) (*ManifestFile, error) {
	data, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatCache, "parsing manifest", "path", path)
	return ParseManifest(data)
}

// Load parses the manifest at path and returns a new descriptor. Plugins named
// in disabled start disabled. Every failure is a *plugin.PluginLoadError.
func (l *ManifestLoader) Load(ctx context.Context, path string, disabled DisabledSet) (*plugin.Descriptor, error) {
	info, err := fs.Stat(l.fsys, path)
	if err != nil {
		return nil, &plugin.PluginLoadError{File: path, Err: err}
	}

	mf, err := l.read.Get(ctx, newManifestKey(path, info), path, l.ttl)
	if err != nil {
		return nil, &plugin.PluginLoadError{File: path, Err: err}
	}

	d, err := mf.Descriptor(path, disabled[mf.Name])
	if err != nil {
		return nil, &plugin.PluginLoadError{File: path, Err: err}
	}
	return d, nil
}

// LoadAll loads every manifest in order. A manifest that fails to load is
// represented by a disabled placeholder and reported in the returned errors.
func (l *ManifestLoader) LoadAll(ctx context.Context, manifests []string, disabled DisabledSet) ([]*plugin.Descriptor, []error) {
	descriptors := make([]*plugin.Descriptor, 0, len(manifests))
	var errs []error
	for _, path := range manifests {
		d, err := l.Load(ctx, path, disabled)
		if err != nil {
			log.ErrorErr(log.CatPlugin, "manifest failed to load", err, "path", path)
			errs = append(errs, err)
			descriptors = append(descriptors, plugin.NewPlaceholder(path, unwrapLoadError(err)))
			continue
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, errs
}

func unwrapLoadError(err error) error {
	var le *plugin.PluginLoadError
	if errors.As(err, &le) {
		return le.Err
	}
	return err
}

// CacheStats reports manifest cache hits and misses.
func (l *ManifestLoader) CacheStats() cachemanager.Stats {
	return l.cache.Stats()
}

// Flush drops every cached manifest.
func (l *ManifestLoader) Flush(ctx context.Context) error {
	return l.cache.Flush(ctx)
}

// DiscoverManifests returns <dir>/<plugin>/plugin.yaml for every plugin
// directory directly below each dir, sorted within a dir and in dir order
// across dirs. Missing dirs are skipped.
func DiscoverManifests(fsys fs.FS, dirs []string) ([]string, error) {
	var manifests []string
	for _, dir := range dirs {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn(log.CatPlugin, "plugin directory does not exist", "dir", dir)
				continue
			}
			return nil, fmt.Errorf("scan plugin directory %s: %w", dir, err)
		}

		var found []string
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(dir, e.Name(), paths.ManifestName)
			if info, err := fs.Stat(fsys, path); err == nil && !info.IsDir() {
				found = append(found, path)
			}
		}
		sort.Strings(found)
		manifests = append(manifests, found...)
	}
	return manifests, nil
}
