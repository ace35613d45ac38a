package plugin

import (
	"path/filepath"

	"github.com/Masterminds/semver/v3"
)

// State is the activation state of a descriptor.
type State int

const (
	StateEnabled State = iota
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Descriptor is the parsed representation of one plugin manifest.
// Everything except the state is fixed at construction.
type Descriptor struct {
	name        string
	version     *semver.Version
	author      string
	description string
	source      string // manifest file the descriptor was parsed from

	identities   []Identity // own name first, then provided identities
	dependencies []VersionReference
	conflicts    []VersionReference
	extensions   []ExtensionPath
	builders     []BuilderDecl

	state   State
	reason  *Diagnostic
	loadErr *PluginLoadError
}

// NewPlaceholder creates the disabled descriptor that stands in for a manifest
// that could not be loaded. It is named after the plugin directory.
func NewPlaceholder(source string, err error) *Descriptor {
	name := filepath.Base(filepath.Dir(source))
	if name == "." || name == string(filepath.Separator) {
		name = filepath.Base(source)
	}
	loadErr := &PluginLoadError{File: source, Err: err}
	return &Descriptor{
		name:    name,
		source:  source,
		state:   StateDisabled,
		loadErr: loadErr,
		reason: &Diagnostic{
			Plugin: name,
			Reason: ReasonLoadFailed,
			Err:    loadErr,
		},
	}
}

// Name returns the plugin name, which is also its primary identity.
func (d *Descriptor) Name() string {
	return d.name
}

// Version returns the plugin version, nil for placeholders.
func (d *Descriptor) Version() *semver.Version {
	return d.version
}

// Author returns the declared author.
func (d *Descriptor) Author() string {
	return d.author
}

// Description returns the declared description.
func (d *Descriptor) Description() string {
	return d.description
}

// Source returns the manifest path.
func (d *Descriptor) Source() string {
	return d.source
}

// Dir returns the plugin directory (the directory holding the manifest).
func (d *Descriptor) Dir() string {
	if d.source == "" {
		return ""
	}
	return filepath.Dir(d.source)
}

// Identities returns the provided identities, own name first.
func (d *Descriptor) Identities() []Identity {
	out := make([]Identity, len(d.identities))
	copy(out, d.identities)
	return out
}

// IdentityMap returns the provided identities keyed by name.
func (d *Descriptor) IdentityMap() map[string]*semver.Version {
	m := make(map[string]*semver.Version, len(d.identities))
	for _, id := range d.identities {
		m[id.Name] = id.Version
	}
	return m
}

// Dependencies returns the references that must be satisfied.
func (d *Descriptor) Dependencies() []VersionReference {
	return d.dependencies
}

// Conflicts returns the references that must not be satisfied.
func (d *Descriptor) Conflicts() []VersionReference {
	return d.conflicts
}

// ExtensionPaths returns the declared extension paths in manifest order.
func (d *Descriptor) ExtensionPaths() []ExtensionPath {
	return d.extensions
}

// ExtensionPath returns the declaration for location, if any.
func (d *Descriptor) ExtensionPath(location string) (ExtensionPath, bool) {
	for _, ext := range d.extensions {
		if ext.Location == location {
			return ext, true
		}
	}
	return ExtensionPath{}, false
}

// Builders returns the builders declared by the plugin.
func (d *Descriptor) Builders() []BuilderDecl {
	return d.builders
}

// State returns the current state.
func (d *Descriptor) State() State {
	return d.state
}

// IsEnabled reports whether the descriptor is enabled.
func (d *Descriptor) IsEnabled() bool {
	return d.state == StateEnabled
}

// Reason returns the diagnostic that disabled the plugin, nil while enabled.
func (d *Descriptor) Reason() *Diagnostic {
	return d.reason
}

// LoadError returns the load failure of a placeholder descriptor.
func (d *Descriptor) LoadError() error {
	if d.loadErr == nil {
		return nil
	}
	return d.loadErr
}

// IsPlaceholder reports whether the descriptor stands in for a failed manifest.
func (d *Descriptor) IsPlaceholder() bool {
	return d.loadErr != nil
}

// Disable marks the descriptor disabled for the given reason.
func (d *Descriptor) Disable(reason Diagnostic) {
	d.state = StateDisabled
	d.reason = &reason
}

// Enable marks the descriptor enabled again. Placeholders stay disabled.
func (d *Descriptor) Enable() bool {
	if d.loadErr != nil {
		return false
	}
	d.state = StateEnabled
	d.reason = nil
	return true
}

// NewItems creates the registered items for one of the descriptor's extension paths.
func (d *Descriptor) NewItems(ext ExtensionPath) []*RegisteredItem {
	items := make([]*RegisteredItem, 0, len(ext.Items))
	for _, decl := range ext.Items {
		items = append(items, NewRegisteredItem(d, ext.Location, decl))
	}
	return items
}

func (d *Descriptor) String() string {
	if d.version == nil {
		return d.name
	}
	return d.name + " v" + d.version.String()
}
