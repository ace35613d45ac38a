package tree

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrPathNotFound         = errors.New("tree path not found")
	ErrDuplicateBuilder     = errors.New("duplicate builder")
	ErrTypeMismatch         = errors.New("built item has unexpected type")
	ErrBuilderNotFound      = errors.New("builder not registered")
	ErrInvalidCompositePath = errors.New("composite path needs a parent path and a child id")
	ErrUnknownClass         = errors.New("unknown class")
)

// PathNotFoundError is returned by strict lookups when a path segment or a
// child item does not exist.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("tree path not found: %s", e.Path)
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// DuplicateBuilderError is returned when a builder name is registered twice.
// Names compare case-insensitively. Plugin and Owner are set when plugins
// are involved; Owner is "built-in" for the default builders.
type DuplicateBuilderError struct {
	Name   string
	Plugin string
	Owner  string
}

func (e *DuplicateBuilderError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("builder %q is already registered", e.Name)
	}
	return fmt.Sprintf("builder %q of %s is already registered by %s", e.Name, e.Plugin, e.Owner)
}

func (e *DuplicateBuilderError) Is(target error) bool {
	return target == ErrDuplicateBuilder
}

// TypeMismatchError is returned by the typed build functions when a builder
// produces a value of the wrong type.
type TypeMismatchError struct {
	Expected string
	Actual   string
	Builder  string
	ItemID   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("builder %s built item %q as %s, expected %s", e.Builder, e.ItemID, e.Actual, e.Expected)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
