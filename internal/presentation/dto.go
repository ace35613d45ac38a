package presentation

import (
	"fmt"
	"time"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
)

// PluginDTO represents a plugin for presentation.
type PluginDTO struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	State       string         `json:"state"`
	Author      string         `json:"author,omitempty"`
	Description string         `json:"description,omitempty"`
	Source      string         `json:"source"`
	Provides    []IdentityDTO  `json:"provides"`
	Requires    []string       `json:"requires"`
	Conflicts   []string       `json:"conflicts"`
	Builders    []string       `json:"builders,omitempty"`
	Locations   []string       `json:"locations,omitempty"`
	Reason      *DiagnosticDTO `json:"reason,omitempty"`
}

// IdentityDTO is one provided identity.
type IdentityDTO struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DiagnosticDTO explains why a plugin is disabled.
type DiagnosticDTO struct {
	Plugin  string `json:"plugin"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ItemDTO is a registered item together with what its builder produced.
type ItemDTO struct {
	ID      string            `json:"id"`
	Builder string            `json:"builder"`
	Plugin  string            `json:"plugin"`
	Path    string            `json:"path"`
	Props   map[string]string `json:"properties,omitempty"`
	Type    string            `json:"type,omitempty"`
	Value   any               `json:"value,omitempty"`
}

// NodeDTO is a subtree of the extension tree.
type NodeDTO struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Items    []ItemDTO `json:"items"`
	Children []NodeDTO `json:"children,omitempty"`
}

// RunDTO summarizes one resolution run.
type RunDTO struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Enabled     []string        `json:"enabled"`
	Diagnostics []DiagnosticDTO `json:"diagnostics"`
}

// FromDomainPlugin converts a descriptor to a DTO.
func FromDomainPlugin(d *plugin.Descriptor) PluginDTO {
	dto := PluginDTO{
		Name:        d.Name(),
		State:       d.State().String(),
		Author:      d.Author(),
		Description: d.Description(),
		Source:      d.Source(),
		Provides:    make([]IdentityDTO, 0),
		Requires:    make([]string, 0),
		Conflicts:   make([]string, 0),
	}
	if v := d.Version(); v != nil {
		dto.Version = v.String()
	}
	for _, id := range d.Identities() {
		if id.Name == d.Name() {
			continue
		}
		dto.Provides = append(dto.Provides, IdentityDTO{Name: id.Name, Version: id.Version.String()})
	}
	for _, ref := range d.Dependencies() {
		dto.Requires = append(dto.Requires, ref.String())
	}
	for _, ref := range d.Conflicts() {
		dto.Conflicts = append(dto.Conflicts, ref.String())
	}
	for _, b := range d.Builders() {
		dto.Builders = append(dto.Builders, fmt.Sprintf("%s (%s)", b.Name, b.Class))
	}
	for _, ext := range d.ExtensionPaths() {
		dto.Locations = append(dto.Locations, ext.Location)
	}
	if r := d.Reason(); r != nil {
		diag := FromDomainDiagnostic(*r)
		dto.Reason = &diag
	}
	return dto
}

// FromDomainPlugins converts descriptors to DTOs, keeping their order.
func FromDomainPlugins(descs []*plugin.Descriptor) []PluginDTO {
	dtos := make([]PluginDTO, 0, len(descs))
	for _, d := range descs {
		dtos = append(dtos, FromDomainPlugin(d))
	}
	return dtos
}

// FromDomainDiagnostic converts a diagnostic to a DTO.
func FromDomainDiagnostic(d plugin.Diagnostic) DiagnosticDTO {
	return DiagnosticDTO{Plugin: d.Plugin, Reason: d.Reason.String(), Message: d.Message()}
}

// FromDomainItem converts a registered item. value is the built object, if any.
func FromDomainItem(item *plugin.RegisteredItem, value any) ItemDTO {
	dto := ItemDTO{
		ID:      item.ID(),
		Builder: item.BuilderName(),
		Path:    item.Location(),
		Props:   make(map[string]string),
	}
	if owner := item.Plugin(); owner != nil {
		dto.Plugin = owner.Name()
	}
	for _, p := range item.Properties() {
		if p.Key == plugin.PropID {
			continue
		}
		dto.Props[p.Key] = p.Value
	}
	if value != nil {
		dto.Type = fmt.Sprintf("%T", value)
		dto.Value = value
	}
	return dto
}

// FromSnapshot converts a tree snapshot to a DTO.
func FromSnapshot(s tree.NodeSnapshot) NodeDTO {
	dto := NodeDTO{Name: s.Name, Path: s.Path, Items: make([]ItemDTO, 0, len(s.Items))}
	for _, item := range s.Items {
		dto.Items = append(dto.Items, FromDomainItem(item, nil))
	}
	for _, c := range s.Children {
		dto.Children = append(dto.Children, FromSnapshot(c))
	}
	return dto
}

// FromDomainRun converts a resolution run to a DTO.
func FromDomainRun(run *plugin.ResolutionRun) RunDTO {
	dto := RunDTO{
		ID:          run.ID,
		CreatedAt:   run.CreatedAt,
		Enabled:     append(make([]string, 0, len(run.Enabled)), run.Enabled...),
		Diagnostics: make([]DiagnosticDTO, 0, len(run.Diagnostics)),
	}
	for _, r := range run.Diagnostics {
		dto.Diagnostics = append(dto.Diagnostics, DiagnosticDTO{Plugin: r.Plugin, Reason: r.Reason, Message: r.Message})
	}
	return dto
}

// BuiltDTO is one object produced by a build.
type BuiltDTO struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// FromBuilt describes built objects, keeping their order.
func FromBuilt(values []any) []BuiltDTO {
	dtos := make([]BuiltDTO, 0, len(values))
	for _, v := range values {
		dtos = append(dtos, BuiltDTO{Type: fmt.Sprintf("%T", v), Value: v})
	}
	return dtos
}
