package presentation

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/zjrosen/plugtree/internal/domain/tree"
)

var (
	nodeStyle   = lipgloss.NewStyle().Bold(true)
	itemStyle   = lipgloss.NewStyle()
	detailStyle = lipgloss.NewStyle().Faint(true)
	branchStyle = lipgloss.NewStyle().Faint(true).MarginRight(1)
)

// RenderTree draws the subtree as an indented tree. Nodes come first with
// their items below them in build order, then child nodes. With plain set no
// styling is applied, which keeps the output stable for diffs.
func RenderTree(s tree.NodeSnapshot, plain bool) string {
	return buildTree(s, plain).String()
}

func buildTree(s tree.NodeSnapshot, plain bool) *ltree.Tree {
	label := s.Path
	if label == "" {
		label = "/"
	}
	t := ltree.Root(style(nodeStyle, plain).Render(label)).Enumerator(ltree.RoundedEnumerator)
	if !plain {
		t = t.EnumeratorStyle(branchStyle)
	}

	for _, item := range s.Items {
		owner := ""
		if p := item.Plugin(); p != nil {
			owner = p.Name()
		}
		detail := fmt.Sprintf("[%s] %s", item.BuilderName(), owner)
		if extra := orderHints(item.InsertAfter(), item.InsertBefore()); extra != "" {
			detail += " " + extra
		}
		t.Child(style(itemStyle, plain).Render(item.ID()) + " " + style(detailStyle, plain).Render(detail))
	}
	for _, c := range s.Children {
		t.Child(buildTree(c, plain))
	}
	return t
}

func orderHints(after, before string) string {
	var hints []string
	if after != "" {
		hints = append(hints, "after "+after)
	}
	if before != "" {
		hints = append(hints, "before "+before)
	}
	if len(hints) == 0 {
		return ""
	}
	return "(" + strings.Join(hints, ", ") + ")"
}

func style(s lipgloss.Style, plain bool) lipgloss.Style {
	if plain {
		return lipgloss.NewStyle()
	}
	return s
}
