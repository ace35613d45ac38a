package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

// ErrDuplicateClass is returned when a class name is added twice.
var ErrDuplicateClass = errors.New("class already registered")

// Constructor creates the object for an item whose class it implements.
type Constructor func(ctx context.Context, item *plugin.RegisteredItem) (any, error)

// Catalog maps class names from manifests to compiled-in constructors.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]Constructor
}

var _ tree.ClassResolver = (*Catalog)(nil)

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{classes: make(map[string]Constructor)}
}

// Add registers fn under class.
func (c *Catalog) Add(class string, fn Constructor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.classes[class]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, class)
	}
	c.classes[class] = fn
	return nil
}

// Construct runs the constructor registered for class.
func (c *Catalog) Construct(ctx context.Context, class string, item *plugin.RegisteredItem) (any, error) {
	c.mu.RLock()
	fn, ok := c.classes[class]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", tree.ErrUnknownClass, class)
	}
	return fn(ctx, item)
}

// Has reports whether class is registered.
func (c *Catalog) Has(class string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.classes[class]
	return ok
}

// Classes returns the registered class names, sorted.
func (c *Catalog) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.classes))
	for name := range c.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
