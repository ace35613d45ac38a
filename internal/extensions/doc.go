// Package extensions holds the classes compiled into plugtree. Manifests
// refer to them by name through the "class" property of Instance and Builder
// items.
//
//	menu.Action         Instance: a menu entry (*Action); hidden entries build to nil
//	menu.Separator      Instance: a menu separator (*Separator)
//	menu.ActionBuilder  Builder: builds *Action values without a class property
//	view.Panel          Instance: a panel (*Panel) attached to the build caller
package extensions
