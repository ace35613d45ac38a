package tree

import (
	"sort"
	"strings"
	"sync"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// SortState is the ordering state of a node's items.
type SortState int

const (
	// Unsorted means the cached order is missing or stale.
	Unsorted SortState = iota
	// Sorted means the cached order reflects the current items.
	Sorted
)

func (s SortState) String() string {
	if s == Sorted {
		return "sorted"
	}
	return "unsorted"
}

// Node is one location in the extension tree. Nodes are created on first use
// and never removed, so a node returned by a lookup stays valid.
type Node struct {
	name string // segment as first inserted, "" for the root
	path string // display path, "/" for the root

	mu       sync.Mutex
	children map[string]*Node // keyed by lower-cased segment
	items    []*plugin.RegisteredItem
	state    SortState
	sorted   []*plugin.RegisteredItem
	sorts    int
}

func newNode(name, path string) *Node {
	return &Node{
		name:     name,
		path:     path,
		children: make(map[string]*Node),
	}
}

// Name returns the path segment of the node with the case it was first
// inserted with.
func (n *Node) Name() string {
	return n.name
}

// Path returns the node path, "/" for the root.
func (n *Node) Path() string {
	return n.path
}

// State returns the current sort state.
func (n *Node) State() SortState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Items returns the node's items in insertion order.
func (n *Node) Items() []*plugin.RegisteredItem {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*plugin.RegisteredItem(nil), n.items...)
}

// SortedItems returns the node's items in build order, sorting them first if
// the cached order is stale. Concurrent callers sort at most once.
func (n *Node) SortedItems() []*plugin.RegisteredItem {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == Unsorted {
		n.sorted = SortItems(n.items)
		n.state = Sorted
		n.sorts++
	}
	return n.sorted
}

// Children returns the child nodes ordered by segment.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].name) < strings.ToLower(out[j].name)
	})
	return out
}

func (n *Node) child(segment string) (*Node, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.children[strings.ToLower(segment)]
	return c, ok
}

func (n *Node) childOrCreate(segment string) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := strings.ToLower(segment)
	if c, ok := n.children[key]; ok {
		return c
	}
	path := n.path + "/" + segment
	if n.path == "/" {
		path = "/" + segment
	}
	c := newNode(segment, path)
	n.children[key] = c
	return c
}

func (n *Node) appendItems(items []*plugin.RegisteredItem) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = append(n.items, items...)
	n.invalidate()
}

func (n *Node) removeOwnedBy(owner *plugin.Descriptor) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	kept := n.items[:0:0]
	for _, item := range n.items {
		if item.Plugin() != owner {
			kept = append(kept, item)
		}
	}
	removed := len(n.items) - len(kept)
	if removed > 0 {
		n.items = kept
		n.invalidate()
	}
	return removed
}

// invalidate must be called with n.mu held. The previous sorted slice is left
// untouched for builders still iterating over it.
func (n *Node) invalidate() {
	n.state = Unsorted
	n.sorted = nil
}
