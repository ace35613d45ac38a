// Package plugins loads plugin manifests, resolves which plugins can be
// enabled and keeps the extension tree in sync with their state.
//
// # Loading
//
// DiscoverManifests finds <dir>/<plugin>/plugin.yaml files. ManifestLoader
// parses each one through a read-through cache keyed by path, modification
// time and size, so unchanged manifests are parsed once. A manifest that
// cannot be parsed or validated becomes a disabled placeholder descriptor
// carrying the load error.
//
// # Service
//
// Service.Load claims identities, runs the dependency resolver, registers
// plugin-defined builders and inserts the items of every enabled plugin into
// a fresh tree. Enable and Disable change one plugin at runtime and cascade
// to the plugins that depend on it. Every change is published to subscribers.
//
// Plugin-defined builders are items themselves. They live under /Builders
// and are constructed the first time an item needs them.
package plugins
