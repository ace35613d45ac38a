package tree

import (
	"strings"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// SortItems orders items so that every item declaring insertafter=X comes
// after the sibling with id X, and every item declaring insertbefore=X comes
// before it. Ids compare case-insensitively; when several items share an id
// the first one is the anchor. References to unknown ids and to the item
// itself are ignored.
//
// Among items whose constraints are satisfied, the one inserted first is
// emitted first, so items without constraints keep their insertion order and the
// result is the earliest order, by insertion index, that meets every
// constraint. An item does not pull its anchor along: with [a, b, c] where c
// is insertbefore a, b is ready before a and the result is [b, c, a]. If the
// constraints form a cycle, the earliest inserted item left is emitted and its
// remaining constraints are dropped.
//
// The input slice is not modified.
func SortItems(items []*plugin.RegisteredItem) []*plugin.RegisteredItem {
	n := len(items)
	if n < 2 {
		return append([]*plugin.RegisteredItem(nil), items...)
	}

	index := make(map[string]int, n)
	for i, item := range items {
		key := strings.ToLower(item.ID())
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	successors := make([][]int, n)
	indegree := make([]int, n)
	edges := make(map[[2]int]bool)
	addEdge := func(from, to int) {
		if from == to || edges[[2]int{from, to}] {
			return
		}
		edges[[2]int{from, to}] = true
		successors[from] = append(successors[from], to)
		indegree[to]++
	}

	for i, item := range items {
		if after := item.InsertAfter(); after != "" {
			if j, ok := index[strings.ToLower(after)]; ok {
				addEdge(j, i)
			}
		}
		if before := item.InsertBefore(); before != "" {
			if j, ok := index[strings.ToLower(before)]; ok {
				addEdge(i, j)
			}
		}
	}

	emitted := make([]bool, n)
	out := make([]*plugin.RegisteredItem, 0, n)
	for len(out) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !emitted[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			// Cycle: take the earliest remaining item.
			for i := 0; i < n; i++ {
				if !emitted[i] {
					next = i
					break
				}
			}
		}

		emitted[next] = true
		out = append(out, items[next])
		for _, s := range successors[next] {
			indegree[s]--
		}
	}
	return out
}
