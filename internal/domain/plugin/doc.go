// Package plugin implements the domain model of the plugin host.
//
// This package follows the same layering as the rest of internal/domain:
//   - Contains only domain logic and has no knowledge of manifests on disk,
//     databases or the CLI
//   - Defines the entity types (Descriptor, RegisteredItem) and value objects
//     (VersionReference, Identity, Properties, Diagnostic)
//   - Implements identity registration and the iterative dependency/conflict
//     resolver
//
// # Core Types
//
// Descriptor is the parsed, validated form of one plugin manifest. It carries
// the identities the plugin provides, its dependency and conflict references,
// the extension paths it contributes items to and the builders it declares.
// Use DescriptorBuilder for construction; NewPlaceholder creates the disabled
// stand-in for a manifest that failed to load.
//
// VersionReference is a (name, constraint) pair checked against a VersionMap.
// Check returns the version found even on mismatch so diagnostics can tell a
// missing identity apart from one installed at the wrong version.
//
// VersionMap maps identity names to the version and owning descriptor.
//
// RegisteredItem is one item contributed to the extension tree. It keeps a
// back reference to its owning descriptor and an ordered property list.
//
// # Resolution
//
// RegisterIdentities claims identities in load order and disables the later
// of two plugins claiming the same name. DependencyResolver then disables
// plugins with a triggered conflict or an unmet dependency, one at a time and
// restarting from the top of the list, until a fixed point is reached. Every
// disablement is described by a Diagnostic.
package plugin
