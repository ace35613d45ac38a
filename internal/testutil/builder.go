// Package testutil builds plugin directories for tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/plugtree/internal/paths"
)

// Builder accumulates plugin manifests and writes them below a temp root.
type Builder struct {
	t       *testing.T
	root    string
	plugins []manifestData
}

// NewBuilder creates a builder rooted in a fresh t.TempDir.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, root: t.TempDir()}
}

// Root returns the plugin root directory.
func (b *Builder) Root() string {
	return b.root
}

// WithPlugin adds a plugin manifest with optional configuration.
func (b *Builder) WithPlugin(name string, opts ...ManifestOption) *Builder {
	m := defaultManifest(name)
	for _, opt := range opts {
		opt(&m)
	}
	b.plugins = append(b.plugins, m)
	return b
}

// Build writes every manifest and returns their paths, sorted.
func (b *Builder) Build() []string {
	b.t.Helper()
	manifests := make([]string, 0, len(b.plugins))
	for _, m := range b.plugins {
		manifests = append(manifests, b.write(m))
	}
	sort.Strings(manifests)
	return manifests
}

// ManifestPath returns where the manifest of the plugin in dir is written.
func (b *Builder) ManifestPath(dir string) string {
	return filepath.Join(b.root, dir, paths.ManifestName)
}

func (b *Builder) write(m manifestData) string {
	b.t.Helper()
	dir := filepath.Join(b.root, m.dir)
	require.NoError(b.t, os.MkdirAll(dir, 0o755))

	var data []byte
	if m.raw != nil {
		data = []byte(*m.raw)
	} else {
		var err error
		data, err = yaml.Marshal(m.node())
		require.NoError(b.t, err)
	}

	path := filepath.Join(dir, paths.ManifestName)
	require.NoError(b.t, os.WriteFile(path, data, 0o644))
	return path
}

func (m manifestData) node() *yaml.Node {
	doc := mapping()
	addScalar(doc, "name", m.name)
	addScalar(doc, "version", m.version)
	addScalar(doc, "author", m.author)
	addScalar(doc, "description", m.description)
	addValue(doc, "provides", m.provides)
	addValue(doc, "requires", m.requires)
	addValue(doc, "conflicts", m.conflicts)
	addValue(doc, "builders", m.builders)

	if len(m.register) > 0 {
		regs := &yaml.Node{Kind: yaml.SequenceNode}
		for _, r := range m.register {
			reg := mapping()
			addScalar(reg, "location", r.location)
			items := &yaml.Node{Kind: yaml.SequenceNode}
			for _, it := range r.items {
				item := mapping()
				for _, kv := range it.kv {
					addScalar(item, kv[0], kv[1])
				}
				items.Content = append(items.Content, item)
			}
			reg.Content = append(reg.Content, scalar("items"), items)
			regs.Content = append(regs.Content, reg)
		}
		doc.Content = append(doc.Content, scalar("register"), regs)
	}
	return doc
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func addScalar(n *yaml.Node, key, value string) {
	if value == "" {
		return
	}
	n.Content = append(n.Content, scalar(key), scalar(value))
}

func addValue[T any](n *yaml.Node, key string, values []T) {
	if len(values) == 0 {
		return
	}
	var v yaml.Node
	if err := v.Encode(values); err != nil {
		panic(err)
	}
	n.Content = append(n.Content, scalar(key), &v)
}
