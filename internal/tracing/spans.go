package tracing

// Span attribute keys.
const (
	AttrRunID           = "run.id"
	AttrPluginName      = "plugin.name"
	AttrPluginVersion   = "plugin.version"
	AttrPluginCount     = "plugin.count"
	AttrEnabledCount    = "plugin.enabled_count"
	AttrDiagnosticCount = "diagnostic.count"
	AttrReason          = "diagnostic.reason"
	AttrTreePath        = "tree.path"
	AttrItemID          = "item.id"
	AttrItemCount       = "item.count"
	AttrBuilderName     = "builder.name"
	AttrManifestPath    = "manifest.path"
)

// Span names.
const (
	SpanLoad          = "plugtree.load"
	SpanDiscover      = "plugtree.discover"
	SpanResolve       = "plugtree.resolve"
	SpanPopulate      = "plugtree.populate"
	SpanSetEnabled    = "plugtree.set_enabled"
	SpanRemove        = "plugtree.remove"
	SpanPrefixBuilder = "builder."
)

// Event names.
const (
	EventPluginDisabled = "plugin.disabled"
	EventManifestFailed = "manifest.failed"
	EventRunSaved       = "run.saved"
)
