package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatPlugins formats a list of plugins as JSON
func (f *Formatter) FormatPlugins(plugins []PluginDTO) error {
	return f.encode(plugins)
}

// FormatItems formats built items as JSON
func (f *Formatter) FormatItems(items []ItemDTO) error {
	return f.encode(items)
}

// FormatNode formats a subtree as JSON
func (f *Formatter) FormatNode(node NodeDTO) error {
	return f.encode(node)
}

// FormatResult formats any command result as JSON
func (f *Formatter) FormatResult(result any) error {
	return f.encode(result)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
