package extensions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

// Menu class names.
const (
	ClassMenuAction        = "menu.Action"
	ClassMenuSeparator     = "menu.Separator"
	ClassMenuActionBuilder = "menu.ActionBuilder"
)

// Action is a menu entry contributed by a plugin.
type Action struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Icon     string `json:"icon,omitempty"`
	Shortcut string `json:"shortcut,omitempty"`
	Command  string `json:"command,omitempty"`
	Plugin   string `json:"plugin,omitempty"`
}

func (a *Action) String() string {
	if a.Shortcut != "" {
		return fmt.Sprintf("%s (%s)", a.Text, a.Shortcut)
	}
	return a.Text
}

// Separator divides groups of menu entries.
type Separator struct {
	ID     string `json:"id"`
	Plugin string `json:"plugin,omitempty"`
}

func (s *Separator) String() string {
	return "---"
}

// newAction builds an action from item properties. Text defaults to the id.
// An item with hidden set to true builds to nil and is skipped.
func newAction(_ context.Context, item *plugin.RegisteredItem) (any, error) {
	props := item.Properties()
	if raw, ok := props.Get("hidden"); ok {
		hidden, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("menu action %s: hidden: %w", item.ID(), err)
		}
		if hidden {
			return nil, nil
		}
	}

	a := &Action{
		ID:       item.ID(),
		Text:     props.Value("text"),
		Icon:     props.Value("icon"),
		Shortcut: props.Value("shortcut"),
		Command:  props.Value("command"),
		Plugin:   ownerName(item),
	}
	if a.Text == "" {
		a.Text = a.ID
	}
	return a, nil
}

func newSeparator(_ context.Context, item *plugin.RegisteredItem) (any, error) {
	return &Separator{ID: item.ID(), Plugin: ownerName(item)}, nil
}

// newActionBuilder returns the builder behind menu.ActionBuilder. Items it
// builds need a command property.
func newActionBuilder(context.Context, *plugin.RegisteredItem) (any, error) {
	return tree.BuilderFunc(func(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
		if _, ok := item.Property("command"); !ok {
			return nil, fmt.Errorf("menu action %s has no command property", item.ID())
		}
		return newAction(ctx, item)
	}), nil
}

func ownerName(item *plugin.RegisteredItem) string {
	if owner := item.Plugin(); owner != nil {
		return owner.Name()
	}
	return ""
}
