package plugins

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

// BuildersPath is where plugin-defined builders are registered as items.
const BuildersPath = "/Builders"

// builderItems declares one Builder item per builder of d.
func builderItems(d *plugin.Descriptor) []*plugin.RegisteredItem {
	decls := d.Builders()
	items := make([]*plugin.RegisteredItem, 0, len(decls))
	for _, decl := range decls {
		items = append(items, plugin.NewRegisteredItem(d, BuildersPath,
			plugin.Item(tree.BuilderBuilderName, plugin.PropID, decl.Name, plugin.PropClass, decl.Class)))
	}
	return items
}

// lazyBuilder stands in for a plugin-defined builder. The real builder is
// built from its /Builders item on first successful use and reused
// afterwards; a failed attempt is retried by the next build.
type lazyBuilder struct {
	name  string
	owner string
	t     *tree.Tree

	mu    sync.Mutex
	inner tree.Builder
}

func newLazyBuilder(t *tree.Tree, owner, name string) *lazyBuilder {
	return &lazyBuilder{t: t, owner: owner, name: name}
}

func (l *lazyBuilder) resolve(ctx context.Context) (tree.Builder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inner != nil {
		return l.inner, nil
	}
	b, ok, err := tree.BuildSingleItemAs[tree.Builder](ctx, l.t, BuildersPath, l.name)
	if err != nil {
		return nil, fmt.Errorf("builder %s of %s: %w", l.name, l.owner, err)
	}
	if !ok {
		return nil, fmt.Errorf("builder %s of %s: %w", l.name, l.owner, tree.ErrBuilderNotFound)
	}
	l.inner = b
	return b, nil
}

// BuildItem builds item with the resolved builder.
func (l *lazyBuilder) BuildItem(ctx context.Context, item *plugin.RegisteredItem) (any, error) {
	b, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return b.BuildItem(ctx, item)
}
