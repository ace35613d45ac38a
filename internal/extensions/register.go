package extensions

import (
	"fmt"

	plugins "github.com/zjrosen/plugtree/internal/plugins/application"
)

// Register adds every built-in class to c.
func Register(c *plugins.Catalog) error {
	classes := []struct {
		name string
		fn   plugins.Constructor
	}{
		{ClassMenuAction, newAction},
		{ClassMenuSeparator, newSeparator},
		{ClassMenuActionBuilder, newActionBuilder},
		{ClassViewPanel, newPanel},
	}
	for _, class := range classes {
		if err := c.Add(class.name, class.fn); err != nil {
			return fmt.Errorf("register built-in classes: %w", err)
		}
	}
	return nil
}

// NewCatalog returns a catalog holding the built-in classes.
func NewCatalog() *plugins.Catalog {
	c := plugins.NewCatalog()
	if err := Register(c); err != nil {
		// The catalog is fresh, so names cannot collide.
		panic(err)
	}
	return c
}
