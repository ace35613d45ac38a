package tree

import "github.com/zjrosen/plugtree/internal/domain/plugin"

// NodeSnapshot is a point-in-time copy of a subtree, with items in build order.
type NodeSnapshot struct {
	Name     string
	Path     string
	Items    []*plugin.RegisteredItem
	Children []NodeSnapshot
}

// Count returns the number of items in the subtree.
func (s NodeSnapshot) Count() int {
	total := len(s.Items)
	for _, c := range s.Children {
		total += c.Count()
	}
	return total
}

// Snapshot copies the subtree at path. The path must exist.
func (t *Tree) Snapshot(path string) (NodeSnapshot, error) {
	n, err := t.GetNode(path, true)
	if err != nil {
		return NodeSnapshot{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return snapshot(n), nil
}

func snapshot(n *Node) NodeSnapshot {
	s := NodeSnapshot{
		Name:  n.Name(),
		Path:  n.Path(),
		Items: append([]*plugin.RegisteredItem(nil), n.SortedItems()...),
	}
	for _, c := range n.Children() {
		s.Children = append(s.Children, snapshot(c))
	}
	return s
}
