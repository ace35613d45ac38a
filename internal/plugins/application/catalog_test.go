package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add("label", func(_ context.Context, item *plugin.RegisteredItem) (any, error) {
		return "label:" + item.Properties().Value("text"), nil
	}))
	require.ErrorIs(t, c.Add("label", nil), ErrDuplicateClass)

	require.True(t, c.Has("label"))
	require.False(t, c.Has("Label"), "class names are exact")
	require.Equal(t, []string{"label"}, c.Classes())

	item := plugin.NewRegisteredItem(nil, "/X", plugin.Item("Instance", "id", "a", "text", "Hi"))
	v, err := c.Construct(context.Background(), "label", item)
	require.NoError(t, err)
	require.Equal(t, "label:Hi", v)

	_, err = c.Construct(context.Background(), "missing", item)
	require.ErrorIs(t, err, tree.ErrUnknownClass)
}

func TestCatalog_DrivesInstanceBuilder(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add("menu.Action", func(_ context.Context, item *plugin.RegisteredItem) (any, error) {
		return item.ID(), nil
	}))

	reg := tree.NewBuilderRegistry()
	require.NoError(t, tree.RegisterDefaults(reg, c))
	b, ok := reg.Lookup(tree.InstanceBuilderName)
	require.True(t, ok)

	v, err := b.BuildItem(context.Background(),
		plugin.NewRegisteredItem(nil, "/Menu", plugin.Item("Instance", "id", "open", "class", "menu.Action")))
	require.NoError(t, err)
	require.Equal(t, "open", v)
}
