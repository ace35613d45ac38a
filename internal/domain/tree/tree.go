package tree

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// Tree is the extension tree: a rooted hierarchy of nodes addressed by
// "/"-delimited, case-insensitive paths, each holding the items plugins
// registered at that location.
//
// Insertion and removal take the tree-wide write lock; lookups and builds take
// the read lock. Builders run after the lock is released, so a builder may
// query the tree itself.
type Tree struct {
	mu       sync.RWMutex
	root     *Node
	builders *BuilderRegistry
}

// New creates an empty tree that builds items through builders.
func New(builders *BuilderRegistry) *Tree {
	return &Tree{
		root:     newNode("", "/"),
		builders: builders,
	}
}

// Builders returns the builder registry used for building items.
func (t *Tree) Builders() *BuilderRegistry {
	return t.builders
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.root
}

// SplitPath returns the non-empty segments of path. "" and "/" yield none.
func SplitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// IsPath reports whether every segment of path exists. The root always exists.
func (t *Tree) IsPath(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.walk(path)
	return ok
}

// GetNode returns the node at path without creating anything. When a segment
// is missing it returns a PathNotFoundError if mustExist is set, and a nil
// node otherwise.
func (t *Tree) GetNode(path string, mustExist bool) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.walk(path)
	if !ok {
		if mustExist {
			return nil, &PathNotFoundError{Path: path}
		}
		return nil, nil
	}
	return n, nil
}

func (t *Tree) walk(path string) (*Node, bool) {
	n := t.root
	for _, segment := range SplitPath(path) {
		c, ok := n.child(segment)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}

// InsertExtensionPath creates any missing nodes along path, appends items to
// the final node and resets its sort state.
func (t *Tree) InsertExtensionPath(path string, items []*plugin.RegisteredItem) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for _, segment := range SplitPath(path) {
		n = n.childOrCreate(segment)
	}
	if len(items) > 0 {
		n.appendItems(items)
	}
	return n
}

// InsertPlugin inserts the items of every extension path of d.
func (t *Tree) InsertPlugin(d *plugin.Descriptor) int {
	count := 0
	for _, ext := range d.ExtensionPaths() {
		items := d.NewItems(ext)
		t.InsertExtensionPath(ext.Location, items)
		count += len(items)
	}
	return count
}

// RemovePluginItems removes every item owned by owner and returns how many
// were removed. Items of an enabled plugin cannot be removed.
func (t *Tree) RemovePluginItems(owner *plugin.Descriptor) (int, error) {
	if owner.IsEnabled() {
		return 0, fmt.Errorf("remove items of %s: %w", owner.Name(), plugin.ErrPluginEnabled)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		removed += n.removeOwnedBy(owner)
		stack = append(stack, n.Children()...)
	}
	return removed, nil
}

// itemsAt resolves path and returns the node's items in build order.
func (t *Tree) itemsAt(path string, mustExist bool) ([]*plugin.RegisteredItem, bool, error) {
	n, err := t.GetNode(path, mustExist)
	if err != nil || n == nil {
		return nil, false, err
	}
	return n.SortedItems(), true, nil
}

func (t *Tree) build(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
	b, ok := t.builders.Lookup(item.BuilderName())
	if !ok {
		return nil, fmt.Errorf("%w: %q (item %s)", ErrBuilderNotFound, item.BuilderName(), item)
	}
	return b.BuildItem(ctx, item)
}

// BuildItemsAt builds every item at path in order and returns the non-nil
// results. A missing path yields a PathNotFoundError if mustExist is set and
// an empty result otherwise. The first builder error is returned unchanged.
func (t *Tree) BuildItemsAt(ctx context.Context, path string, mustExist bool) ([]any, error) {
	items, _, err := t.itemsAt(path, mustExist)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := t.build(ctx, item)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// findItem returns the first item at path whose id matches, ignoring case.
func (t *Tree) findItem(path, id string, mustExist bool) (*plugin.RegisteredItem, error) {
	items, _, err := t.itemsAt(path, mustExist)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if strings.EqualFold(item.ID(), id) {
			return item, nil
		}
	}
	return nil, nil
}

// BuildSingleItemAt builds the item with the given id at path. A missing path
// is handled as in BuildItemsAt; a missing item is always a PathNotFoundError
// naming path/id.
func (t *Tree) BuildSingleItemAt(ctx context.Context, path, id string, mustExist bool) (any, error) {
	if !mustExist && !t.IsPath(path) {
		return nil, nil
	}
	item, err := t.findItem(path, id, mustExist)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &PathNotFoundError{Path: joinPath(path, id)}
	}
	return t.build(ctx, item)
}

// BuildCompositePath builds the item addressed by path, read as a parent path
// followed by a child id. The parent must exist. Every item at the parent is
// built first and the results discarded, then the child item is built on its
// own; items below parent/child are not built. caller is made available to
// builders through CallerFrom.
func (t *Tree) BuildCompositePath(ctx context.Context, path string, caller any) (any, error) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCompositePath, path)
	}
	parent := "/" + strings.Join(segments[:len(segments)-1], "/")
	child := segments[len(segments)-1]

	ctx = WithCaller(ctx, caller)
	if _, err := t.BuildItemsAt(ctx, parent, true); err != nil {
		return nil, err
	}
	return t.BuildSingleItemAt(ctx, parent, child, true)
}

// BuildItemsAs is BuildItemsAt with every result required to be a T.
// A result of another type fails the whole build with a TypeMismatchError.
func BuildItemsAs[T any](ctx context.Context, t *Tree, path string, mustExist bool) ([]T, error) {
	items, _, err := t.itemsAt(path, mustExist)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := t.build(ctx, item)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		typed, ok := v.(T)
		if !ok {
			return nil, typeMismatch[T](item, v)
		}
		out = append(out, typed)
	}
	return out, nil
}

// BuildSingleItemAs builds the item with the given id at path as a T.
// A missing path or item is reported as ok=false without an error; a nil
// result also yields ok=false.
func BuildSingleItemAs[T any](ctx context.Context, t *Tree, path, id string) (T, bool, error) {
	var zero T
	item, err := t.findItem(path, id, false)
	if err != nil || item == nil {
		return zero, false, err
	}

	v, err := t.build(ctx, item)
	if err != nil || v == nil {
		return zero, false, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false, typeMismatch[T](item, v)
	}
	return typed, true, nil
}

func typeMismatch[T any](item *plugin.RegisteredItem, v any) error {
	return &TypeMismatchError{
		Expected: reflect.TypeFor[T]().String(),
		Actual:   fmt.Sprintf("%T", v),
		Builder:  item.BuilderName(),
		ItemID:   item.ID(),
	}
}

func joinPath(path, id string) string {
	return "/" + strings.Join(append(SplitPath(path), id), "/")
}

type callerKey struct{}

// WithCaller returns a context carrying the object that requested a build.
func WithCaller(ctx context.Context, caller any) context.Context {
	if caller == nil {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the object passed to BuildCompositePath, if any.
func CallerFrom(ctx context.Context) any {
	return ctx.Value(callerKey{})
}
