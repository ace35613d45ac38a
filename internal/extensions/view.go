package extensions

import (
	"context"
	"fmt"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

// ClassViewPanel is the class name of Panel.
const ClassViewPanel = "view.Panel"

// Panel is a view contributed by a plugin. Parent names the object that
// requested the build, when one was passed.
type Panel struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Parent string `json:"parent,omitempty"`
	Plugin string `json:"plugin,omitempty"`
}

func (p *Panel) String() string {
	return p.Title
}

func newPanel(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
	p := &Panel{
		ID:     item.ID(),
		Title:  item.Properties().Value("title"),
		Plugin: ownerName(item),
	}
	if p.Title == "" {
		p.Title = p.ID
	}
	switch caller := tree.CallerFrom(ctx).(type) {
	case nil:
	case *Panel:
		p.Parent = caller.ID
	case string:
		p.Parent = caller
	case fmt.Stringer:
		p.Parent = caller.String()
	default:
		p.Parent = fmt.Sprintf("%T", caller)
	}
	return p, nil
}
