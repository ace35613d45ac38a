package plugin

import (
	"errors"
	"fmt"
	"strings"
)

type identityDecl struct {
	name    string
	version string
}

type referenceDecl struct {
	name       string
	constraint string
}

// DescriptorBuilder provides a fluent API for creating descriptors.
type DescriptorBuilder struct {
	name        string
	version     string
	author      string
	description string
	source      string
	disabled    bool

	provides   []identityDecl
	requires   []referenceDecl
	conflicts  []referenceDecl
	extensions []ExtensionPath
	builders   []BuilderDecl
}

// NewDescriptorBuilder creates a builder for the plugin called name.
func NewDescriptorBuilder(name string) *DescriptorBuilder {
	return &DescriptorBuilder{name: name}
}

// Version sets the plugin version. Defaults to 0.0.0.
func (b *DescriptorBuilder) Version(v string) *DescriptorBuilder {
	b.version = v
	return b
}

// Author sets the author.
func (b *DescriptorBuilder) Author(a string) *DescriptorBuilder {
	b.author = a
	return b
}

// Description sets the description.
func (b *DescriptorBuilder) Description(d string) *DescriptorBuilder {
	b.description = d
	return b
}

// Source sets the manifest path the descriptor came from.
func (b *DescriptorBuilder) Source(path string) *DescriptorBuilder {
	b.source = path
	return b
}

// Disabled builds the descriptor in the disabled state (user configuration).
func (b *DescriptorBuilder) Disabled() *DescriptorBuilder {
	b.disabled = true
	return b
}

// Provides adds an identity in addition to the plugin's own name.
func (b *DescriptorBuilder) Provides(name, version string) *DescriptorBuilder {
	b.provides = append(b.provides, identityDecl{name: name, version: version})
	return b
}

// Requires adds a dependency reference.
func (b *DescriptorBuilder) Requires(name, constraint string) *DescriptorBuilder {
	b.requires = append(b.requires, referenceDecl{name: name, constraint: constraint})
	return b
}

// ConflictsWith adds a conflict reference.
func (b *DescriptorBuilder) ConflictsWith(name, constraint string) *DescriptorBuilder {
	b.conflicts = append(b.conflicts, referenceDecl{name: name, constraint: constraint})
	return b
}

// Register adds items at location. Repeated locations are merged in call order.
func (b *DescriptorBuilder) Register(location string, items ...ItemDecl) *DescriptorBuilder {
	for i := range b.extensions {
		if b.extensions[i].Location == location {
			b.extensions[i].Items = append(b.extensions[i].Items, items...)
			return b
		}
	}
	b.extensions = append(b.extensions, ExtensionPath{Location: location, Items: items})
	return b
}

// DeclareBuilder adds a plugin-defined builder constructed from class.
func (b *DescriptorBuilder) DeclareBuilder(name, class string) *DescriptorBuilder {
	b.builders = append(b.builders, BuilderDecl{Name: name, Class: class})
	return b
}

// Build validates the declarations and creates the descriptor.
func (b *DescriptorBuilder) Build() (*Descriptor, error) {
	name := strings.TrimSpace(b.name)
	if name == "" {
		return nil, ErrEmptyName
	}

	version := b.version
	if strings.TrimSpace(version) == "" {
		version = "0.0.0"
	}
	v, err := ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", name, err)
	}

	d := &Descriptor{
		name:        name,
		version:     v,
		author:      b.author,
		description: b.description,
		source:      b.source,
		identities:  []Identity{{Name: name, Version: v}},
	}

	seen := map[string]bool{name: true}
	for _, p := range b.provides {
		if seen[p.name] {
			return nil, fmt.Errorf("plugin %s: %w: %s", name, ErrDuplicateIdentity, p.name)
		}
		seen[p.name] = true

		if strings.TrimSpace(p.name) == "" {
			return nil, fmt.Errorf("plugin %s: %w", name, ErrEmptyReferenceName)
		}
		pv, err := ParseVersion(p.version)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: identity %s: %w", name, p.name, err)
		}
		d.identities = append(d.identities, Identity{Name: p.name, Version: pv})
	}

	if d.dependencies, err = buildReferences(b.requires); err != nil {
		return nil, fmt.Errorf("plugin %s: requires: %w", name, err)
	}
	if d.conflicts, err = buildReferences(b.conflicts); err != nil {
		return nil, fmt.Errorf("plugin %s: conflicts: %w", name, err)
	}

	if err := validateExtensions(b.extensions); err != nil {
		return nil, fmt.Errorf("plugin %s: %w", name, err)
	}
	d.extensions = b.extensions

	declared := make(map[string]bool, len(b.builders))
	for i, decl := range b.builders {
		if decl.Name == "" || decl.Class == "" {
			return nil, fmt.Errorf("plugin %s: %w at index %d", name, ErrInvalidBuilderDecl, i)
		}
		key := strings.ToLower(decl.Name)
		if declared[key] {
			return nil, fmt.Errorf("plugin %s: %w: %s", name, ErrDuplicateBuilderDecl, decl.Name)
		}
		declared[key] = true
	}
	d.builders = b.builders

	if b.disabled {
		d.Disable(Diagnostic{Plugin: name, Reason: ReasonUserDisabled})
	}
	return d, nil
}

func buildReferences(decls []referenceDecl) ([]VersionReference, error) {
	var refs []VersionReference
	var errs []error
	for _, decl := range decls {
		ref, err := NewVersionReference(decl.name, decl.constraint)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, errors.Join(errs...)
}

func validateExtensions(exts []ExtensionPath) error {
	for _, ext := range exts {
		if strings.Trim(ext.Location, "/ ") == "" && ext.Location != "/" {
			return ErrEmptyLocation
		}
		for i, item := range ext.Items {
			if item.Builder == "" {
				return fmt.Errorf("%w at %s index %d", ErrMissingItemBuilder, ext.Location, i)
			}
			if item.ID() == "" {
				return fmt.Errorf("%w at %s index %d (builder: %s)", ErrMissingItemID, ext.Location, i, item.Builder)
			}
		}
	}
	return nil
}
