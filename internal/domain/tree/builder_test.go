package tree

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

type mapClasses map[string]func(item *plugin.RegisteredItem) any

func (m mapClasses) Construct(_ context.Context, class string, item *plugin.RegisteredItem) (any, error) {
	ctor, ok := m[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	return ctor(item), nil
}

func TestBuilderRegistry_DuplicateName(t *testing.T) {
	reg := NewBuilderRegistry()
	require.NoError(t, reg.Register("Echo", echoBuilder))

	err := reg.Register("Echo", echoBuilder)

	require.ErrorIs(t, err, ErrDuplicateBuilder)
	var dup *DuplicateBuilderError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "Echo", dup.Name)
}

func TestBuilderRegistry_NamesIgnoreCase(t *testing.T) {
	reg := NewBuilderRegistry()
	require.NoError(t, reg.Register("Label", echoBuilder))

	err := reg.Register("label", echoBuilder)
	require.ErrorIs(t, err, ErrDuplicateBuilder)

	b, ok := reg.Lookup("LABEL")
	require.True(t, ok)
	require.NotNil(t, b)
	require.Equal(t, []string{"Label"}, reg.Names(), "names keep their registered spelling")

	require.True(t, reg.Unregister("lAbEl"))
	require.False(t, reg.Has("Label"))
}

func TestDuplicateBuilderError_Message(t *testing.T) {
	require.Equal(t, `builder "Echo" is already registered`, (&DuplicateBuilderError{Name: "Echo"}).Error())
	require.Equal(t, `builder "Echo" of beta is already registered by alpha`,
		(&DuplicateBuilderError{Name: "Echo", Plugin: "beta", Owner: "alpha"}).Error())
}

func TestBuilderRegistry_UnregisterAndNames(t *testing.T) {
	reg := NewBuilderRegistry()
	require.NoError(t, reg.Register("b", echoBuilder))
	require.NoError(t, reg.Register("a", echoBuilder))

	require.Equal(t, []string{"a", "b"}, reg.Names())
	require.True(t, reg.Unregister("a"))
	require.False(t, reg.Unregister("a"))
	require.False(t, reg.Has("a"))
	require.NoError(t, reg.Register("a", echoBuilder), "a name can be reused after unregistering")
}

func TestRegisterDefaults(t *testing.T) {
	classes := mapClasses{
		"greeting": func(item *plugin.RegisteredItem) any {
			return "hello " + item.ID()
		},
		"echo.Builder": func(*plugin.RegisteredItem) any {
			return echoBuilder
		},
	}
	reg := NewBuilderRegistry()
	require.NoError(t, RegisterDefaults(reg, classes))
	require.Equal(t, []string{"Builder", "Instance", "Resource"}, reg.Names())

	require.ErrorIs(t, RegisterDefaults(reg, classes), ErrDuplicateBuilder)

	owner, err := plugin.NewDescriptorBuilder("skin").
		Source(filepath.Join("plugins", "skin", "plugin.yaml")).
		Build()
	require.NoError(t, err)

	tr := New(reg)
	tr.InsertExtensionPath("/x", []*plugin.RegisteredItem{
		plugin.NewRegisteredItem(owner, "/x", plugin.Item("Instance", "id", "world", "class", "greeting")),
		plugin.NewRegisteredItem(owner, "/x", plugin.Item("Resource", "id", "logo", "type", "image", "path", "img/logo.png")),
		plugin.NewRegisteredItem(owner, "/x", plugin.Item("Builder", "id", "Echo", "class", "echo.Builder")),
	})
	ctx := context.Background()

	got, err := tr.BuildItemsAt(ctx, "/x", true)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "hello world", got[0])
	require.Equal(t, Resource{
		Plugin: "skin",
		Type:   "image",
		Path:   filepath.Join("plugins", "skin", "img", "logo.png"),
	}, got[1])
	_, isBuilder := got[2].(Builder)
	require.True(t, isBuilder)
}

func TestRegisterDefaults_Errors(t *testing.T) {
	reg := NewBuilderRegistry()
	require.NoError(t, RegisterDefaults(reg, mapClasses{
		"not.a.builder": func(*plugin.RegisteredItem) any { return 42 },
	}))
	tr := New(reg)
	ctx := context.Background()

	tests := []struct {
		name    string
		decl    plugin.ItemDecl
		wantErr error
	}{
		{name: "instance without class", decl: plugin.Item("Instance", "id", "a")},
		{name: "unknown class", decl: plugin.Item("Instance", "id", "a", "class", "missing"), wantErr: ErrUnknownClass},
		{name: "resource without path", decl: plugin.Item("Resource", "id", "a")},
		{name: "builder class of wrong type", decl: plugin.Item("Builder", "id", "a", "class", "not.a.builder"), wantErr: ErrTypeMismatch},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("/case%d", i)
			tr.InsertExtensionPath(path, []*plugin.RegisteredItem{plugin.NewRegisteredItem(nil, path, tt.decl)})

			_, err := tr.BuildItemsAt(ctx, path, true)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
