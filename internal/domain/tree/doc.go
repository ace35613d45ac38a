// Package tree implements the extension tree: a path-addressed hierarchy of
// items contributed by plugins, materialized on demand through named builders.
//
// Items at a node are ordered by their insertafter and insertbefore
// properties (see SortItems). The order is computed on the first build of a
// node and cached until items are inserted or removed.
//
// Typed builds use the generic functions BuildItemsAs and BuildSingleItemAs:
//
//	menus, err := tree.BuildItemsAs[MenuAction](ctx, t, "/Home/Menu", false)
package tree
