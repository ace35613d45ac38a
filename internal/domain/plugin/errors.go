package plugin

import (
	"errors"
	"fmt"
)

// Descriptor validation errors
var (
	ErrEmptyName            = errors.New("plugin name cannot be empty")
	ErrInvalidVersion       = errors.New("invalid plugin version")
	ErrEmptyReferenceName   = errors.New("version reference name cannot be empty")
	ErrInvalidConstraint    = errors.New("invalid version constraint")
	ErrDuplicateIdentity    = errors.New("identity declared more than once")
	ErrEmptyLocation        = errors.New("extension location cannot be empty")
	ErrMissingItemID        = errors.New("registered item requires an id")
	ErrMissingItemBuilder   = errors.New("registered item requires a builder")
	ErrInvalidBuilderDecl   = errors.New("builder declaration requires a name and a class")
	ErrDuplicateBuilderDecl = errors.New("builder declared more than once")
)

// Lifecycle errors
var (
	ErrPluginLoad     = errors.New("plugin load failed")
	ErrPluginEnabled  = errors.New("plugin is enabled")
	ErrPluginNotFound = errors.New("plugin not found")
	ErrRunNotFound    = errors.New("resolution run not found")
)

// PluginLoadError reports a manifest that could not be turned into a descriptor.
type PluginLoadError struct {
	File string
	Err  error
}

func (e *PluginLoadError) Error() string {
	return fmt.Sprintf("load plugin %s: %v", e.File, e.Err)
}

// Unwrap exposes both ErrPluginLoad and the underlying cause to errors.Is.
func (e *PluginLoadError) Unwrap() []error {
	return []error{ErrPluginLoad, e.Err}
}
