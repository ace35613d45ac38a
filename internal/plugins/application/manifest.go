package plugins

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// ManifestFile is the root structure of plugin.yaml.
type ManifestFile struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	Author      string         `yaml:"author"`
	Description string         `yaml:"description"`
	Provides    []ReferenceDef `yaml:"provides"`
	Requires    []ReferenceDef `yaml:"requires"`
	Conflicts   []ReferenceDef `yaml:"conflicts"`
	Builders    []BuilderDef   `yaml:"builders"`
	Register    []RegisterDef  `yaml:"register"`
}

// ReferenceDef names another plugin identity. Under provides, Version is the
// identity's version; under requires and conflicts it is a constraint.
type ReferenceDef struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// BuilderDef declares a builder the plugin contributes.
type BuilderDef struct {
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
}

// RegisterDef lists items a plugin registers at one tree location.
type RegisterDef struct {
	Location string    `yaml:"location"`
	Items    []ItemDef `yaml:"items"`
}

// ItemDef is one registered item. Every key except builder is a property,
// kept in manifest order.
type ItemDef struct {
	Builder    string
	Properties plugin.Properties
}

// UnmarshalYAML decodes an item mapping while preserving key order.
func (d *ItemDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: item must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: item property %q must be a scalar", value.Line, key.Value)
		}
		if key.Value == "builder" {
			d.Builder = value.Value
			continue
		}
		d.Properties = append(d.Properties, plugin.Property{Key: key.Value, Value: value.Value})
	}
	return nil
}

// ParseManifest decodes a manifest. Unknown top-level keys are rejected.
func ParseManifest(data []byte) (*ManifestFile, error) {
	var mf ManifestFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &mf, nil
}

// Descriptor builds a fresh descriptor from the manifest. The manifest is not
// modified, so cached manifests can be turned into descriptors repeatedly.
func (m *ManifestFile) Descriptor(source string, disabled bool) (*plugin.Descriptor, error) {
	b := plugin.NewDescriptorBuilder(m.Name).
		Version(m.Version).
		Author(m.Author).
		Description(m.Description).
		Source(source)

	for _, p := range m.Provides {
		b.Provides(p.Name, p.Version)
	}
	for _, r := range m.Requires {
		b.Requires(r.Name, r.Version)
	}
	for _, c := range m.Conflicts {
		b.ConflictsWith(c.Name, c.Version)
	}
	for _, bd := range m.Builders {
		b.DeclareBuilder(bd.Name, bd.Class)
	}
	for _, reg := range m.Register {
		items := make([]plugin.ItemDecl, 0, len(reg.Items))
		for _, it := range reg.Items {
			items = append(items, plugin.ItemDecl{Builder: it.Builder, Properties: it.Properties.Clone()})
		}
		b.Register(reg.Location, items...)
	}
	if disabled {
		b.Disabled()
	}
	return b.Build()
}
