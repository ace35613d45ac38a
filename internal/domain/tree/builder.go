package tree

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// Names of the builders every registry starts with (see RegisterDefaults).
const (
	InstanceBuilderName = "Instance"
	ResourceBuilderName = "Resource"
	BuilderBuilderName  = "Builder"
)

// Builder turns a registered item into a runtime object. A nil result means
// the item contributes nothing and is skipped. Errors reach the caller of the
// build unchanged.
type Builder interface {
	BuildItem(ctx context.Context, item *plugin.RegisteredItem) (any, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, item *plugin.RegisteredItem) (any, error)

// BuildItem calls f.
func (f BuilderFunc) BuildItem(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
	return f(ctx, item)
}

// BuilderRegistry maps unique builder names to builders. Names compare
// case-insensitively, like the item ids builders are declared with.
// It is safe for concurrent use.
type BuilderRegistry struct {
	mu       sync.RWMutex
	builders map[string]namedBuilder
}

type namedBuilder struct {
	name string
	b    Builder
}

// BuilderKey folds a builder name for comparison.
func BuilderKey(name string) string {
	return strings.ToLower(name)
}

// NewBuilderRegistry creates an empty registry.
func NewBuilderRegistry() *BuilderRegistry {
	return &BuilderRegistry{builders: make(map[string]namedBuilder)}
}

// Register adds b under name. A name can only be registered once.
func (r *BuilderRegistry) Register(name string, b Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := BuilderKey(name)
	if _, exists := r.builders[key]; exists {
		return &DuplicateBuilderError{Name: name}
	}
	r.builders[key] = namedBuilder{name: name, b: b}
	return nil
}

// Unregister removes name and reports whether it was registered.
func (r *BuilderRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := BuilderKey(name)
	_, ok := r.builders[key]
	delete(r.builders, key)
	return ok
}

// Lookup returns the builder registered under name.
func (r *BuilderRegistry) Lookup(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nb, ok := r.builders[BuilderKey(name)]
	return nb.b, ok
}

// Has reports whether name is registered.
func (r *BuilderRegistry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *BuilderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for _, nb := range r.builders {
		names = append(names, nb.name)
	}
	sort.Strings(names)
	return names
}

// ClassResolver constructs objects from class names declared in manifests.
type ClassResolver interface {
	Construct(ctx context.Context, class string, item *plugin.RegisteredItem) (any, error)
}

// Resource is what the Resource builder produces: a file or directory shipped
// with a plugin.
type Resource struct {
	Plugin string
	Type   string
	Path   string
}

// RegisterDefaults registers the Instance, Resource and Builder builders.
//
// Instance constructs the item's "class" property through classes.
// Resource resolves the item's "path" property against the plugin directory.
// Builder constructs the item's "class" property and requires the result to
// be a Builder; plugins use it to contribute builders of their own.
func RegisterDefaults(r *BuilderRegistry, classes ClassResolver) error {
	defaults := []struct {
		name string
		b    Builder
	}{
		{InstanceBuilderName, BuilderFunc(func(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
			return constructClass(ctx, classes, item)
		})},
		{ResourceBuilderName, BuilderFunc(buildResource)},
		{BuilderBuilderName, BuilderFunc(func(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
			v, err := constructClass(ctx, classes, item)
			if err != nil {
				return nil, err
			}
			b, ok := v.(Builder)
			if !ok {
				return nil, &TypeMismatchError{
					Expected: "tree.Builder",
					Actual:   fmt.Sprintf("%T", v),
					Builder:  item.BuilderName(),
					ItemID:   item.ID(),
				}
			}
			return b, nil
		})},
	}

	for _, d := range defaults {
		if err := r.Register(d.name, d.b); err != nil {
			return err
		}
	}
	return nil
}

func constructClass(ctx context.Context, classes ClassResolver, item *plugin.RegisteredItem) (any, error) {
	class, ok := item.Property(plugin.PropClass)
	if !ok || class == "" {
		return nil, fmt.Errorf("item %s has no %s property", item, plugin.PropClass)
	}
	return classes.Construct(ctx, class, item)
}

func buildResource(_ context.Context, item *plugin.RegisteredItem) (any, error) {
	rel, ok := item.Property("path")
	if !ok || rel == "" {
		return nil, fmt.Errorf("resource item %s has no path property", item)
	}

	res := Resource{Type: item.Properties().Value("type"), Path: filepath.FromSlash(rel)}
	if owner := item.Plugin(); owner != nil {
		res.Plugin = owner.Name()
		if dir := owner.Dir(); dir != "" && !filepath.IsAbs(res.Path) {
			res.Path = filepath.Join(dir, res.Path)
		}
	}
	return res, nil
}
