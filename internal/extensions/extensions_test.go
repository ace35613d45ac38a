package extensions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	plugins "github.com/zjrosen/plugtree/internal/plugins/application"
	"github.com/zjrosen/plugtree/internal/testutil"
)

func TestRegister(t *testing.T) {
	c := NewCatalog()
	require.Equal(t, []string{
		ClassMenuAction,
		ClassMenuActionBuilder,
		ClassMenuSeparator,
		ClassViewPanel,
	}, c.Classes())

	require.ErrorIs(t, Register(c), plugins.ErrDuplicateClass)
}

func TestNewAction(t *testing.T) {
	tests := []struct {
		name    string
		props   []string
		want    *Action
		wantErr string
	}{
		{
			name:  "text defaults to id",
			props: []string{"id", "open"},
			want:  &Action{ID: "open", Text: "open"},
		},
		{
			name:  "all properties",
			props: []string{"id", "open", "text", "Open", "icon", "folder", "shortcut", "ctrl+o", "command", "file.open"},
			want:  &Action{ID: "open", Text: "Open", Icon: "folder", Shortcut: "ctrl+o", Command: "file.open"},
		},
		{
			name:  "hidden",
			props: []string{"id", "debug", "hidden", "true"},
		},
		{
			name:  "explicitly shown",
			props: []string{"id", "debug", "hidden", "false"},
			want:  &Action{ID: "debug", Text: "debug"},
		},
		{
			name:    "bad hidden value",
			props:   []string{"id", "debug", "hidden", "sometimes"},
			wantErr: "hidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := plugin.NewRegisteredItem(nil, "/Menu", plugin.Item("Instance", tt.props...))
			v, err := newAction(context.Background(), item)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				require.Nil(t, v)
				return
			}
			require.Equal(t, tt.want, v)
		})
	}
}

func TestAction_String(t *testing.T) {
	require.Equal(t, "Open (ctrl+o)", (&Action{Text: "Open", Shortcut: "ctrl+o"}).String())
	require.Equal(t, "Open", (&Action{Text: "Open"}).String())
}

func loadService(t *testing.T, manifests []string) *plugins.Service {
	t.Helper()
	svc := plugins.NewService(NewCatalog())
	t.Cleanup(svc.Close)
	_, err := svc.Load(context.Background(), manifests, nil)
	require.NoError(t, err)
	require.Empty(t, svc.Diagnostics())
	return svc
}

func TestMenuThroughService(t *testing.T) {
	manifests := testutil.NewBuilder(t).
		WithPlugin("core",
			testutil.Register("/Home/Menu",
				testutil.Item("Instance", "open", "class", ClassMenuAction, "text", "Open"),
				testutil.Item("Instance", "sep", "class", ClassMenuSeparator, "insertafter", "open"),
				testutil.Item("Instance", "debug", "class", ClassMenuAction, "hidden", "true"))).
		WithPlugin("media",
			testutil.DeclareBuilder("MenuAction", ClassMenuActionBuilder),
			testutil.Register("/Home/Menu",
				testutil.Item("MenuAction", "music", "text", "Music", "command", "media.play", "insertafter", "sep"))).
		Build()
	svc := loadService(t, manifests)

	items, err := svc.BuildItems(context.Background(), "/Home/Menu", true)
	require.NoError(t, err)
	require.Len(t, items, 3, "hidden action is skipped")

	require.Equal(t, &Action{ID: "open", Text: "Open", Plugin: "core"}, items[0])
	require.Equal(t, &Separator{ID: "sep", Plugin: "core"}, items[1])
	require.Equal(t, &Action{ID: "music", Text: "Music", Command: "media.play", Plugin: "media"}, items[2])
}

func TestActionBuilderRequiresCommand(t *testing.T) {
	manifests := testutil.NewBuilder(t).
		WithPlugin("media",
			testutil.DeclareBuilder("MenuAction", ClassMenuActionBuilder),
			testutil.Register("/Menu", testutil.Item("MenuAction", "music"))).
		Build()
	svc := loadService(t, manifests)

	_, err := svc.BuildItems(context.Background(), "/Menu", true)
	require.ErrorContains(t, err, "no command property")
}

func TestPanelCaller(t *testing.T) {
	manifests := testutil.NewBuilder(t).
		WithPlugin("views",
			testutil.Register("/Views",
				testutil.Item("Instance", "main", "class", ClassViewPanel, "title", "Main")),
			testutil.Register("/Views/Main",
				testutil.Item("Instance", "sidebar", "class", ClassViewPanel, "title", "Sidebar"))).
		Build()
	svc := loadService(t, manifests)
	ctx := context.Background()

	v, err := svc.BuildItem(ctx, "/Views", "main", true)
	require.NoError(t, err)
	require.Equal(t, &Panel{ID: "main", Title: "Main", Plugin: "views"}, v)

	v, err = svc.BuildComposite(ctx, "/Views/Main/sidebar", &Panel{ID: "main"})
	require.NoError(t, err)
	require.Equal(t, &Panel{ID: "sidebar", Title: "Sidebar", Parent: "main", Plugin: "views"}, v)

	v, err = svc.BuildComposite(ctx, "/Views/Main/sidebar", "shell")
	require.NoError(t, err)
	require.Equal(t, "shell", v.(*Panel).Parent)
}
