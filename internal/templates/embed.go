// Package templates embeds the sample plugins written by 'plugtree init'.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zjrosen/plugtree/internal/log"
)

// samplePlugins embeds one directory per sample plugin:
//   - plugins/<plugin-name>/plugin.yaml
//
//go:embed plugins
var samplePlugins embed.FS

// PluginsFS returns the embedded sample plugins, one directory per plugin.
func PluginsFS() fs.FS {
	sub, err := fs.Sub(samplePlugins, "plugins")
	if err != nil {
		panic(err)
	}
	return sub
}

// SamplePlugins returns the names of the embedded plugins, sorted.
func SamplePlugins() []string {
	entries, _ := fs.ReadDir(PluginsFS(), ".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// WriteSamplePlugins copies the sample plugins into dir. Plugin directories
// that already exist are left untouched. It returns the plugins written.
func WriteSamplePlugins(dir string) ([]string, error) {
	src := PluginsFS()
	var written []string
	for _, name := range SamplePlugins() {
		target := filepath.Join(dir, name)
		if _, err := os.Stat(target); err == nil {
			log.Debug(log.CatConfig, "Sample plugin exists, skipping", "path", target)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return written, err
		}

		sub, err := fs.Sub(src, name)
		if err != nil {
			return written, err
		}
		if err := os.CopyFS(target, sub); err != nil {
			return written, fmt.Errorf("writing sample plugin %s: %w", name, err)
		}
		written = append(written, name)
	}
	log.Info(log.CatConfig, "Wrote sample plugins", "dir", dir, "count", len(written))
	return written, nil
}
