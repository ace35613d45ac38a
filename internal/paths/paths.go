// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ManifestName is the manifest file of a plugin directory.
	ManifestName = "plugin.yaml"

	// RedirectName is a file in a plugin root whose content points to the
	// real root, relative to the redirecting one.
	RedirectName = "redirect"
)

// ResolvePluginRoot resolves a plugin root directory from user input.
//
// Input normalization:
//   - "/path/to/plugins" -> "/path/to/plugins"
//   - "/path/to/plugins/core" (containing plugin.yaml) -> "/path/to/plugins"
//   - "/path/to/plugins/core/plugin.yaml" -> "/path/to/plugins"
//   - "" -> "plugins"
//
// A redirect file in the resolved root is followed once.
func ResolvePluginRoot(path string) string {
	if path == "" {
		path = "plugins"
	}
	path = filepath.Clean(path)

	if filepath.Base(path) == ManifestName {
		return followRedirect(filepath.Dir(filepath.Dir(path)))
	}
	if _, err := os.Stat(filepath.Join(path, ManifestName)); err == nil {
		return followRedirect(filepath.Dir(path))
	}
	return followRedirect(path)
}

// ResolvePluginRoots resolves every entry and drops duplicates, keeping order.
func ResolvePluginRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		r := ResolvePluginRoot(p)
		if !seen[r] {
			seen[r] = true
			roots = append(roots, r)
		}
	}
	return roots
}

func followRedirect(root string) string {
	content, err := os.ReadFile(filepath.Join(root, RedirectName)) //nolint:gosec // redirect lives inside the plugin root
	if err != nil {
		return root
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return root
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(root, target))
}

// ConfigDir returns ~/.config/plugtree, or "" when the home directory is unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "plugtree")
}
