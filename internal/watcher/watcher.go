// Package watcher watches plugin directories and reports, debounced, which
// plugin manifests were created, changed or removed.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/plugtree/internal/log"
	"github.com/zjrosen/plugtree/internal/paths"
)

// DefaultManifestName is the manifest file looked for in each plugin directory.
const DefaultManifestName = paths.ManifestName

// Change lists the manifest paths touched during one debounce window.
// A path may no longer exist when the manifest was removed.
type Change struct {
	Paths []string
}

// Watcher monitors plugin directories.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     map[string]bool
	manifest  string
	debounce  time.Duration
	onChange  chan Change
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Dirs         []string
	ManifestName string
	DebounceDur  time.Duration
}

// DefaultConfig returns defaults for watching dirs.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:         dirs,
		ManifestName: DefaultManifestName,
		DebounceDur:  500 * time.Millisecond,
	}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("no plugin directories to watch")
	}
	if cfg.ManifestName == "" {
		cfg.ManifestName = DefaultManifestName
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	roots := make(map[string]bool, len(cfg.Dirs))
	for _, d := range cfg.Dirs {
		roots[filepath.Clean(d)] = true
	}
	return &Watcher{
		fsWatcher: fsw,
		roots:     roots,
		manifest:  cfg.ManifestName,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan Change, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches every root and each plugin directory directly below it.
// The returned channel receives one Change per debounce window.
func (w *Watcher) Start() (<-chan Change, error) {
	for root := range w.roots {
		if err := w.fsWatcher.Add(root); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", root, err)
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", root, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				w.addPluginDir(filepath.Join(root, e.Name()))
			}
		}
	}

	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) addPluginDir(dir string) {
	if err := w.fsWatcher.Add(dir); err != nil {
		log.ErrorErr(log.CatWatcher, "watch plugin directory", err, "dir", dir)
		return
	}
	log.Debug(log.CatWatcher, "watching plugin directory", "dir", dir)
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[string]bool{}
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			path, relevant := w.handle(event)
			if !relevant {
				continue
			}
			pending[path] = true

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			change := Change{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			sort.Strings(change.Paths)
			pending = map[string]bool{}

			// A reader that has not consumed the last change will reload anyway.
			select {
			case w.onChange <- change:
			default:
				log.Debug(log.CatWatcher, "change dropped, previous one still pending", "paths", change.Paths)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// handle reacts to one event and returns the manifest path it concerns.
// A new plugin directory is watched and reported through its manifest path;
// a removed one is reported the same way.
func (w *Watcher) handle(event fsnotify.Event) (string, bool) {
	parent := filepath.Dir(event.Name)

	if w.roots[parent] {
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				w.addPluginDir(event.Name)
				return filepath.Join(event.Name, w.manifest), true
			}
		}
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			return filepath.Join(event.Name, w.manifest), true
		}
		return "", false
	}

	if filepath.Base(event.Name) != w.manifest || !w.roots[filepath.Dir(parent)] {
		return "", false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	log.Debug(log.CatWatcher, "manifest event", "file", event.Name, "op", event.Op.String())
	return event.Name, true
}
