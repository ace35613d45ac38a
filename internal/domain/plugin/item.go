package plugin

import (
	"fmt"
	"strings"
)

// Well-known item property keys.
const (
	PropID           = "id"
	PropInsertAfter  = "insertafter"
	PropInsertBefore = "insertbefore"
	PropClass        = "class"
)

// Property is a single key/value pair of a registered item.
type Property struct {
	Key   string
	Value string
}

// Properties is an ordered property list. Keys compare case-insensitively.
type Properties []Property

// NewProperties builds a property list from alternating keys and values.
// A trailing key without a value gets an empty value.
func NewProperties(kv ...string) Properties {
	props := make(Properties, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Property{Key: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		props = append(props, p)
	}
	return props
}

// Get returns the value of the first property named key.
func (p Properties) Get(key string) (string, bool) {
	for _, prop := range p {
		if strings.EqualFold(prop.Key, key) {
			return prop.Value, true
		}
	}
	return "", false
}

// Value returns the value of key, or "" when absent.
func (p Properties) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Clone returns a copy that does not share the backing array.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	copy(out, p)
	return out
}

// ItemDecl is an item as declared in a manifest, before it is registered.
type ItemDecl struct {
	Builder    string
	Properties Properties
}

// Item declares an item for builder with alternating property keys and values.
func Item(builder string, kv ...string) ItemDecl {
	return ItemDecl{Builder: builder, Properties: NewProperties(kv...)}
}

// ID returns the declared id property.
func (d ItemDecl) ID() string {
	return d.Properties.Value(PropID)
}

// ExtensionPath is a tree location together with the items a plugin registers there.
type ExtensionPath struct {
	Location string
	Items    []ItemDecl
}

// BuilderDecl is a builder a plugin contributes, constructed from a catalog class.
type BuilderDecl struct {
	Name  string
	Class string
}

// RegisteredItem is an item contributed by a plugin at one tree location.
// It is immutable once created.
type RegisteredItem struct {
	plugin   *Descriptor
	builder  string
	location string
	props    Properties
}

// NewRegisteredItem creates the item for decl, owned by owner, at location.
func NewRegisteredItem(owner *Descriptor, location string, decl ItemDecl) *RegisteredItem {
	return &RegisteredItem{
		plugin:   owner,
		builder:  decl.Builder,
		location: location,
		props:    decl.Properties.Clone(),
	}
}

// Plugin returns the owning descriptor.
func (i *RegisteredItem) Plugin() *Descriptor {
	return i.plugin
}

// BuilderName returns the name of the builder that materializes this item.
func (i *RegisteredItem) BuilderName() string {
	return i.builder
}

// Location returns the tree path the item was registered under.
func (i *RegisteredItem) Location() string {
	return i.location
}

// ID returns the item id.
func (i *RegisteredItem) ID() string {
	return i.props.Value(PropID)
}

// InsertAfter returns the id of the sibling this item must follow, if any.
func (i *RegisteredItem) InsertAfter() string {
	return i.props.Value(PropInsertAfter)
}

// InsertBefore returns the id of the sibling this item must precede, if any.
func (i *RegisteredItem) InsertBefore() string {
	return i.props.Value(PropInsertBefore)
}

// Property returns a single property value.
func (i *RegisteredItem) Property(key string) (string, bool) {
	return i.props.Get(key)
}

// Properties returns a copy of all properties in declaration order.
func (i *RegisteredItem) Properties() Properties {
	return i.props.Clone()
}

func (i *RegisteredItem) String() string {
	owner := ""
	if i.plugin != nil {
		owner = i.plugin.Name()
	}
	return fmt.Sprintf("%s:%s@%s (%s)", i.builder, i.ID(), i.location, owner)
}
