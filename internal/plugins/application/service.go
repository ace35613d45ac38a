package plugins

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
	"github.com/zjrosen/plugtree/internal/domain/tree"
	"github.com/zjrosen/plugtree/internal/log"
	"github.com/zjrosen/plugtree/internal/pubsub"
	"github.com/zjrosen/plugtree/internal/tracing"
)

// ErrNotLoaded is returned by operations that need a completed Load.
var ErrNotLoaded = errors.New("plugins not loaded")

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLoader replaces the default manifest loader.
func WithLoader(l *ManifestLoader) ServiceOption {
	return func(s *Service) { s.loader = l }
}

// WithStore persists disabled plugins and resolution runs in repo.
func WithStore(repo plugin.StateRepository) ServiceOption {
	return func(s *Service) { s.store = repo }
}

// WithDisabledSaver calls fn with every user-disabled plugin name after
// Enable or Disable. It is used when no store is configured.
func WithDisabledSaver(fn func(names []string) error) ServiceOption {
	return func(s *Service) { s.saveDisabled = fn }
}

// WithTracer traces loads, state changes and item builds with tracer.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// Service owns the loaded plugins and the extension tree built from them.
// It is safe for concurrent use; builds run without holding the service lock.
type Service struct {
	catalog      *Catalog
	loader       *ManifestLoader
	store        plugin.StateRepository
	saveDisabled func([]string) error
	tracer       trace.Tracer
	broker       *pubsub.Broker[PluginEvent]

	mu            sync.Mutex
	plugins       []*plugin.Descriptor
	byName        map[string]*plugin.Descriptor
	versions      *plugin.VersionMap
	tree          *tree.Tree
	builderOwners map[string]*plugin.Descriptor // keyed by tree.BuilderKey
	diagnostics   []plugin.Diagnostic
	lastRun       *plugin.ResolutionRun
	runID         string
}

// NewService creates a service whose Instance and Builder items construct
// classes from catalog.
func NewService(catalog *Catalog, opts ...ServiceOption) *Service {
	s := &Service{
		catalog: catalog,
		tracer:  noop.NewTracerProvider().Tracer("noop"),
		broker:  pubsub.NewBroker[PluginEvent](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = NewManifestLoader()
	}
	return s
}

// Close ends all subscriptions.
func (s *Service) Close() {
	s.broker.Close()
}

// Subscribe delivers plugin events until ctx is done.
func (s *Service) Subscribe(ctx context.Context, opts ...pubsub.SubscribeOption) <-chan pubsub.Event[PluginEvent] {
	return s.broker.Subscribe(ctx, opts...)
}

// Load replaces the current plugin set with the plugins of manifests, in
// order. Names in disabled, and those recorded in the store, start disabled.
// Manifests that fail to load become disabled placeholders.
//
// Two enabled plugins declaring the same builder name fail the load with a
// *tree.DuplicateBuilderError per clash. The later plugin is disabled and the
// service stays usable with the rest, so the returned run is valid either way.
// Load also fails when the store cannot be read.
func (s *Service) Load(ctx context.Context, manifests []string, disabled []string) (*plugin.ResolutionRun, error) {
	runID := uuid.NewString()
	ctx = tracing.ContextWithRunID(ctx, runID)
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanLoad, attribute.Int(tracing.AttrPluginCount, len(manifests)))
	run, err := s.load(ctx, runID, manifests, disabled)
	if run != nil {
		span.SetAttributes(
			attribute.Int(tracing.AttrEnabledCount, len(run.Enabled)),
			attribute.Int(tracing.AttrDiagnosticCount, len(run.Diagnostics)),
		)
	}
	tracing.End(span, err)
	return run, err
}

func (s *Service) load(ctx context.Context, runID string, manifests []string, disabled []string) (*plugin.ResolutionRun, error) {
	userDisabled := NewDisabledSet(disabled...)
	if s.store != nil {
		stored, err := s.store.DisabledPlugins()
		if err != nil {
			return nil, fmt.Errorf("read disabled plugins: %w", err)
		}
		for _, name := range stored {
			userDisabled[name] = true
		}
	}

	builders := tree.NewBuilderRegistry()
	if err := tree.RegisterDefaults(builders, s.catalog); err != nil {
		return nil, fmt.Errorf("register default builders: %w", err)
	}
	for _, name := range builders.Names() {
		b, _ := builders.Lookup(name)
		builders.Unregister(name)
		_ = builders.Register(name, tracing.TraceBuilder(s.tracer, name, b))
	}

	_, discoverSpan := tracing.Start(ctx, s.tracer, tracing.SpanDiscover)
	descriptors, loadErrs := s.loader.LoadAll(ctx, manifests, userDisabled)
	for _, err := range loadErrs {
		discoverSpan.AddEvent(tracing.EventManifestFailed, trace.WithAttributes(attribute.String("error", err.Error())))
	}
	tracing.End(discoverSpan, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runID = runID
	s.plugins = descriptors
	s.byName = make(map[string]*plugin.Descriptor, len(descriptors))
	for _, d := range descriptors {
		if _, dup := s.byName[d.Name()]; !dup {
			s.byName[d.Name()] = d
		}
	}
	s.tree = tree.New(builders)
	s.builderOwners = make(map[string]*plugin.Descriptor)

	var diags []plugin.Diagnostic
	for _, d := range descriptors {
		if r := d.Reason(); r != nil {
			diags = append(diags, *r)
		}
	}

	resolveCtx, resolveSpan := tracing.Start(ctx, s.tracer, tracing.SpanResolve)
	versions, collisions := plugin.RegisterIdentities(descriptors)
	s.versions = versions
	diags = append(diags, collisions...)
	diags = append(diags, s.resolve(resolveCtx)...)
	resolveSpan.SetAttributes(attribute.Int(tracing.AttrDiagnosticCount, len(diags)))
	tracing.End(resolveSpan, nil)

	_, populateSpan := tracing.Start(ctx, s.tracer, tracing.SpanPopulate)
	items := 0
	for _, d := range descriptors {
		if d.IsEnabled() {
			items += s.insert(d)
		}
	}
	populateSpan.SetAttributes(attribute.Int(tracing.AttrItemCount, items))
	tracing.End(populateSpan, nil)

	s.diagnostics = diags
	run := s.newRun(runID, diags)
	s.lastRun = run
	if s.store != nil {
		if err := s.store.SaveRun(run); err != nil {
			log.ErrorErr(log.CatDB, "save resolution run", err, "run", runID)
		} else {
			trace.SpanFromContext(ctx).AddEvent(tracing.EventRunSaved)
		}
	}

	log.Info(log.CatPlugin, "plugins loaded",
		"run", runID, "plugins", len(descriptors), "enabled", len(run.Enabled), "diagnostics", len(diags), "items", items)
	s.broker.Publish(pubsub.ReloadedEvent, PluginEvent{RunID: runID})

	var dupErrs []error
	for _, diag := range diags {
		if diag.Reason == plugin.ReasonDuplicateBuilder {
			dupErrs = append(dupErrs, diag.Err)
		}
	}
	if len(dupErrs) > 0 {
		return run, fmt.Errorf("load plugins: %w", errors.Join(dupErrs...))
	}
	return run, nil
}

// newResolver returns a resolver reporting each disabled plugin to the log
// and to the span in ctx.
func (s *Service) newResolver(ctx context.Context) *plugin.DependencyResolver {
	return plugin.NewDependencyResolver(plugin.WithDiagnosticHandler(func(diag plugin.Diagnostic) {
		log.Info(log.CatResolver, "plugin disabled", "plugin", diag.Plugin, "reason", diag.Reason.String(), "message", diag.Message())
		trace.SpanFromContext(ctx).AddEvent(tracing.EventPluginDisabled, trace.WithAttributes(
			attribute.String(tracing.AttrPluginName, diag.Plugin),
			attribute.String(tracing.AttrReason, diag.Reason.String()),
		))
	}))
}

// resolve runs the dependency resolver and registers the builders of every
// enabled plugin, repeating while a duplicate builder disables a plugin.
// The caller holds s.mu.
func (s *Service) resolve(ctx context.Context) []plugin.Diagnostic {
	resolver := s.newResolver(ctx)

	diags := resolver.Resolve(s.plugins, s.versions)
	for {
		failed := false
		for _, d := range s.plugins {
			if !d.IsEnabled() {
				continue
			}
			if diag, ok := s.registerBuilders(d); !ok {
				d.Disable(diag)
				s.versions.Release(d)
				diags = append(diags, diag)
				log.Warn(log.CatBuilder, "plugin disabled", "plugin", d.Name(), "message", diag.Message())
				diags = append(diags, resolver.Resolve(s.plugins, s.versions)...)
				failed = true
				break
			}
		}
		if !failed {
			break
		}
	}

	for _, d := range s.plugins {
		if !d.IsEnabled() {
			s.unregisterBuilders(d)
		}
	}
	return diags
}

// registerBuilders registers all builders of d or none of them.
func (s *Service) registerBuilders(d *plugin.Descriptor) (plugin.Diagnostic, bool) {
	registry := s.tree.Builders()
	decls := d.Builders()
	for _, decl := range decls {
		owner, owned := s.builderOwners[tree.BuilderKey(decl.Name)]
		if owned && owner == d {
			continue
		}
		if registry.Has(decl.Name) {
			other := "built-in"
			if owned {
				other = owner.Name()
			}
			return plugin.Diagnostic{
				Plugin:   d.Name(),
				Reason:   plugin.ReasonDuplicateBuilder,
				Identity: decl.Name,
				Other:    other,
				Err:      &tree.DuplicateBuilderError{Name: decl.Name, Plugin: d.Name(), Owner: other},
			}, false
		}
	}
	for _, decl := range decls {
		key := tree.BuilderKey(decl.Name)
		if s.builderOwners[key] == d {
			continue
		}
		b := tracing.TraceBuilder(s.tracer, decl.Name, newLazyBuilder(s.tree, d.Name(), decl.Name))
		if err := registry.Register(decl.Name, b); err != nil {
			// Checked above under s.mu.
			panic(err)
		}
		s.builderOwners[key] = d
	}
	return plugin.Diagnostic{}, true
}

func (s *Service) unregisterBuilders(d *plugin.Descriptor) {
	for key, owner := range s.builderOwners {
		if owner == d {
			s.tree.Builders().Unregister(key)
			delete(s.builderOwners, key)
		}
	}
}

// insert adds the items and builder items of d to the tree.
func (s *Service) insert(d *plugin.Descriptor) int {
	n := s.tree.InsertPlugin(d)
	if items := builderItems(d); len(items) > 0 {
		s.tree.InsertExtensionPath(BuildersPath, items)
		n += len(items)
	}
	log.Debug(log.CatTree, "plugin items inserted", "plugin", d.Name(), "items", n)
	return n
}

// deactivate removes everything a disabled plugin contributed.
func (s *Service) deactivate(d *plugin.Descriptor) {
	s.versions.Release(d)
	s.unregisterBuilders(d)
	if n, err := s.tree.RemovePluginItems(d); err != nil {
		log.ErrorErr(log.CatTree, "remove plugin items", err, "plugin", d.Name())
	} else {
		log.Debug(log.CatTree, "plugin items removed", "plugin", d.Name(), "items", n)
	}
}

func (s *Service) newRun(runID string, diags []plugin.Diagnostic) *plugin.ResolutionRun {
	run := &plugin.ResolutionRun{ID: runID, CreatedAt: time.Now()}
	for _, d := range s.plugins {
		if d.IsEnabled() {
			run.Enabled = append(run.Enabled, d.Name())
		}
	}
	for _, diag := range diags {
		run.Diagnostics = append(run.Diagnostics, diag.Record())
	}
	return run
}

// Disable turns off the plugin called name at the user's request. Its items
// and builders are removed and every plugin that no longer resolves is
// disabled too; their diagnostics are returned.
func (s *Service) Disable(ctx context.Context, name string) ([]plugin.Diagnostic, error) {
	ctx, span := tracing.Start(tracing.ContextWithRunID(ctx, s.currentRunID()), s.tracer, tracing.SpanSetEnabled,
		attribute.String(tracing.AttrPluginName, name), attribute.Bool("plugin.enabled", false))
	diags, err := s.disable(ctx, name)
	tracing.End(span, err)
	return diags, err
}

func (s *Service) disable(ctx context.Context, name string) ([]plugin.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	if d.IsPlaceholder() {
		return nil, nil
	}

	var cascade []plugin.Diagnostic
	wasEnabled := d.IsEnabled()
	d.Disable(plugin.Diagnostic{Plugin: name, Reason: plugin.ReasonUserDisabled})
	if wasEnabled {
		s.deactivate(d)
		before := s.enabledSet()
		cascade = s.newResolver(ctx).Resolve(s.plugins, s.versions)
		for _, other := range s.plugins {
			if before[other] && !other.IsEnabled() {
				s.deactivate(other)
				s.broker.Publish(pubsub.UpdatedEvent, stateEvent(s.runID, other))
			}
		}
	}
	s.replaceDiagnostic(name, *d.Reason())
	for _, diag := range cascade {
		s.replaceDiagnostic(diag.Plugin, diag)
	}

	if err := s.persist(name, true); err != nil {
		return cascade, err
	}
	log.Info(log.CatPlugin, "plugin disabled by user", "plugin", name, "cascade", len(cascade))
	s.broker.Publish(pubsub.UpdatedEvent, stateEvent(s.runID, d))
	return cascade, nil
}

// Enable turns on the plugin called name without a reload. Plugins disabled
// only because of unmet dependencies are retried with it. When the plugin
// still cannot be enabled its new diagnostic is returned as an error.
// The returned descriptors are every plugin that became enabled.
func (s *Service) Enable(ctx context.Context, name string) ([]*plugin.Descriptor, error) {
	ctx, span := tracing.Start(tracing.ContextWithRunID(ctx, s.currentRunID()), s.tracer, tracing.SpanSetEnabled,
		attribute.String(tracing.AttrPluginName, name), attribute.Bool("plugin.enabled", true))
	enabled, err := s.enable(ctx, name)
	tracing.End(span, err)
	return enabled, err
}

func (s *Service) enable(ctx context.Context, name string) ([]*plugin.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if d.IsEnabled() {
		return nil, nil
	}
	if d.IsPlaceholder() {
		return nil, fmt.Errorf("enable %s: %w", name, d.LoadError())
	}

	before := s.enabledSet()
	candidates := []*plugin.Descriptor{d}
	for _, other := range s.plugins {
		if r := other.Reason(); other != d && r != nil && r.Reason == plugin.ReasonUnmetDependency {
			candidates = append(candidates, other)
		}
	}

	var diags []plugin.Diagnostic
	for _, c := range candidates {
		c.Enable()
		if diag, ok := s.versions.Claim(c); !ok {
			c.Disable(diag)
			diags = append(diags, diag)
		}
	}
	diags = append(diags, s.resolve(ctx)...)
	for _, diag := range diags {
		s.replaceDiagnostic(diag.Plugin, diag)
	}

	var activated []*plugin.Descriptor
	for _, other := range s.plugins {
		switch {
		case before[other] && !other.IsEnabled():
			s.deactivate(other)
			s.broker.Publish(pubsub.UpdatedEvent, stateEvent(s.runID, other))
		case !before[other] && other.IsEnabled():
			s.insert(other)
			s.removeDiagnostic(other.Name())
			activated = append(activated, other)
			s.broker.Publish(pubsub.UpdatedEvent, stateEvent(s.runID, other))
		}
	}

	if err := s.persist(name, false); err != nil {
		return activated, err
	}
	if !d.IsEnabled() {
		reason := d.Reason()
		log.Warn(log.CatPlugin, "plugin could not be enabled", "plugin", name, "message", reason.Message())
		s.broker.Publish(pubsub.UpdatedEvent, stateEvent(s.runID, d))
		return activated, fmt.Errorf("enable %s: %s", name, reason.Message())
	}
	log.Info(log.CatPlugin, "plugin enabled", "plugin", name, "activated", len(activated))
	return activated, nil
}

// Remove forgets a disabled plugin. Enabled plugins must be disabled first.
func (s *Service) Remove(ctx context.Context, name string) error {
	_, span := tracing.Start(tracing.ContextWithRunID(ctx, s.currentRunID()), s.tracer, tracing.SpanRemove,
		attribute.String(tracing.AttrPluginName, name))
	err := s.remove(name)
	tracing.End(span, err)
	return err
}

func (s *Service) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(name)
	if err != nil {
		return err
	}
	if _, err := s.tree.RemovePluginItems(d); err != nil {
		return err
	}

	kept := s.plugins[:0]
	for _, other := range s.plugins {
		if other != d {
			kept = append(kept, other)
		}
	}
	s.plugins = kept
	delete(s.byName, name)
	s.removeDiagnostic(name)

	log.Info(log.CatPlugin, "plugin removed", "plugin", name)
	s.broker.Publish(pubsub.DeletedEvent, stateEvent(s.runID, d))
	return nil
}

func (s *Service) lookup(name string) (*plugin.Descriptor, error) {
	if s.byName == nil {
		return nil, ErrNotLoaded
	}
	d, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", plugin.ErrPluginNotFound, name)
	}
	return d, nil
}

func (s *Service) enabledSet() map[*plugin.Descriptor]bool {
	set := make(map[*plugin.Descriptor]bool, len(s.plugins))
	for _, d := range s.plugins {
		if d.IsEnabled() {
			set[d] = true
		}
	}
	return set
}

func (s *Service) replaceDiagnostic(name string, diag plugin.Diagnostic) {
	for i := range s.diagnostics {
		if s.diagnostics[i].Plugin == name {
			s.diagnostics[i] = diag
			return
		}
	}
	s.diagnostics = append(s.diagnostics, diag)
}

func (s *Service) removeDiagnostic(name string) {
	kept := s.diagnostics[:0]
	for _, diag := range s.diagnostics {
		if diag.Plugin != name {
			kept = append(kept, diag)
		}
	}
	s.diagnostics = kept
}

// persist records the user's choice in the store or through the saver.
func (s *Service) persist(name string, disabled bool) error {
	if s.store != nil {
		if err := s.store.SetDisabled(name, disabled); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
		return nil
	}
	if s.saveDisabled == nil {
		return nil
	}
	var names []string
	for _, d := range s.plugins {
		if r := d.Reason(); r != nil && r.Reason == plugin.ReasonUserDisabled {
			names = append(names, d.Name())
		}
	}
	if err := s.saveDisabled(names); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (s *Service) currentRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Plugins returns every loaded descriptor in load order.
func (s *Service) Plugins() []*plugin.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*plugin.Descriptor(nil), s.plugins...)
}

// Plugin returns the descriptor called name.
func (s *Service) Plugin(name string) (*plugin.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(name)
}

// Diagnostics returns one entry per disabled plugin, in the order they were disabled.
func (s *Service) Diagnostics() []plugin.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]plugin.Diagnostic(nil), s.diagnostics...)
}

// LastRun returns the run recorded by the latest Load, or nil.
func (s *Service) LastRun() *plugin.ResolutionRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Tree returns the current extension tree, or nil before the first Load.
func (s *Service) Tree() *tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Builders returns the registered builder names, sorted.
func (s *Service) Builders() []string {
	t := s.Tree()
	if t == nil {
		return nil
	}
	return t.Builders().Names()
}

// BuildItems builds every item at path.
func (s *Service) BuildItems(ctx context.Context, path string, mustExist bool) ([]any, error) {
	t := s.Tree()
	if t == nil {
		return nil, ErrNotLoaded
	}
	return t.BuildItemsAt(tracing.ContextWithRunID(ctx, s.currentRunID()), path, mustExist)
}

// BuildItem builds the item id at path.
func (s *Service) BuildItem(ctx context.Context, path, id string, mustExist bool) (any, error) {
	t := s.Tree()
	if t == nil {
		return nil, ErrNotLoaded
	}
	return t.BuildSingleItemAt(tracing.ContextWithRunID(ctx, s.currentRunID()), path, id, mustExist)
}

// BuildComposite builds the item addressed by a parent path plus child id.
func (s *Service) BuildComposite(ctx context.Context, path string, caller any) (any, error) {
	t := s.Tree()
	if t == nil {
		return nil, ErrNotLoaded
	}
	return t.BuildCompositePath(tracing.ContextWithRunID(ctx, s.currentRunID()), path, caller)
}
