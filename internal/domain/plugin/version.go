package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a plugin or identity version.
// Partial versions such as "1" or "1.2" and a leading "v" are accepted.
func ParseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, v, err)
	}
	return parsed, nil
}

// VersionReference names an identity and the versions of it that match.
// It is used both for dependencies (must match) and conflicts (must not match).
type VersionReference struct {
	name       string
	constraint string
	check      *semver.Constraints // nil matches any version
}

// NewVersionReference creates a reference. An empty constraint or "*" matches
// any installed version.
func NewVersionReference(name, constraint string) (VersionReference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return VersionReference{}, ErrEmptyReferenceName
	}

	ref := VersionReference{name: name, constraint: strings.TrimSpace(constraint)}
	if ref.constraint == "" || ref.constraint == "*" {
		return ref, nil
	}

	c, err := semver.NewConstraint(ref.constraint)
	if err != nil {
		return VersionReference{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidConstraint, name, constraint, err)
	}
	ref.check = c
	return ref, nil
}

// Name returns the referenced identity name.
func (r VersionReference) Name() string {
	return r.name
}

// Constraint returns the constraint as written, empty for "any version".
func (r VersionReference) Constraint() string {
	return r.constraint
}

// String returns "name constraint", or just the name when any version matches.
func (r VersionReference) String() string {
	if r.constraint == "" {
		return r.name
	}
	return r.name + " " + r.constraint
}

// Check looks the reference up in versions. found is the installed version
// whenever the identity is present, even if it does not satisfy the constraint.
func (r VersionReference) Check(versions *VersionMap) (matches bool, found *semver.Version) {
	v, ok := versions.Lookup(r.name)
	if !ok {
		return false, nil
	}
	if r.check == nil {
		return true, v
	}
	return r.check.Check(v), v
}

// Identity is one name a plugin provides, at a specific version.
type Identity struct {
	Name    string
	Version *semver.Version
}

type versionEntry struct {
	version *semver.Version
	owner   *Descriptor
}

// VersionMap maps identity names to the installed version and the descriptor
// that provides it. It is not safe for concurrent use.
type VersionMap struct {
	entries map[string]versionEntry
}

// NewVersionMap creates an empty map.
func NewVersionMap() *VersionMap {
	return &VersionMap{entries: make(map[string]versionEntry)}
}

// Lookup returns the installed version of name.
func (m *VersionMap) Lookup(name string) (*semver.Version, bool) {
	e, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return e.version, true
}

// Owner returns the descriptor providing name, or nil.
func (m *VersionMap) Owner(name string) *Descriptor {
	return m.entries[name].owner
}

// Claim registers every identity of d, or none of them when one is already
// owned by another descriptor. The returned diagnostic describes the collision.
func (m *VersionMap) Claim(d *Descriptor) (Diagnostic, bool) {
	for _, id := range d.identities {
		if owner := m.Owner(id.Name); owner != nil && owner != d {
			return Diagnostic{
				Plugin:   d.Name(),
				Reason:   ReasonIdentityCollision,
				Identity: id.Name,
				Other:    owner.Name(),
			}, false
		}
	}
	for _, id := range d.identities {
		m.entries[id.Name] = versionEntry{version: id.Version, owner: d}
	}
	return Diagnostic{}, true
}

// Release removes every identity owned by d and returns the removed names.
func (m *VersionMap) Release(d *Descriptor) []string {
	var removed []string
	for name, e := range m.entries {
		if e.owner == d {
			delete(m.entries, name)
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}

// Names returns all registered identity names, sorted.
func (m *VersionMap) Names() []string {
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered identities.
func (m *VersionMap) Len() int {
	return len(m.entries)
}
