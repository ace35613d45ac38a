// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"
	"sort"

	"github.com/zjrosen/plugtree/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagStateDB stores user-disabled plugins and resolution runs in SQLite.
	// When disabled, disabled plugins are written back to the config file and
	// no run history is kept.
	FlagStateDB = "state-db"

	// FlagWatchDiff makes the watch command print a line diff of the tree
	// after each reload instead of the full tree.
	FlagWatchDiff = "watch-diff"
)

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "enabled", r.EnabledNames())
	return r
}

// Enabled returns true if the named flag is enabled.
// Unknown flags and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}

// EnabledNames returns the names of the enabled flags, sorted.
func (r *Registry) EnabledNames() []string {
	var names []string
	for name, on := range r.All() {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
