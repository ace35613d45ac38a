package plugin

// RegisterIdentities claims the identities of the enabled descriptors in load
// order. A descriptor claiming a name already owned by an earlier one is
// disabled and left out of the map.
func RegisterIdentities(descriptors []*Descriptor) (*VersionMap, []Diagnostic) {
	versions := NewVersionMap()
	var diags []Diagnostic
	for _, d := range descriptors {
		if !d.IsEnabled() {
			continue
		}
		if diag, ok := versions.Claim(d); !ok {
			d.Disable(diag)
			diags = append(diags, diag)
		}
	}
	return versions, diags
}

// ResolverOption configures a DependencyResolver.
type ResolverOption func(*DependencyResolver)

// WithDiagnosticHandler registers fn to be called for every plugin the
// resolver disables, in the order they are disabled.
func WithDiagnosticHandler(fn func(Diagnostic)) ResolverOption {
	return func(r *DependencyResolver) {
		r.onDisable = fn
	}
}

// DependencyResolver disables plugins until every enabled plugin has its
// dependencies satisfied and none of its conflicts triggered.
type DependencyResolver struct {
	onDisable func(Diagnostic)
}

// NewDependencyResolver creates a resolver.
func NewDependencyResolver(opts ...ResolverOption) *DependencyResolver {
	r := &DependencyResolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve mutates descriptors in place and removes the identities of every
// disabled plugin from versions, so plugins depending on them fail in a later
// pass. Each pass disables at most one plugin, the first violation found in
// list order, then starts over; the loop ends on the first clean pass.
// The result depends on the order of descriptors.
func (r *DependencyResolver) Resolve(descriptors []*Descriptor, versions *VersionMap) []Diagnostic {
	var disabled []Diagnostic
	for {
		d, diag, found := nextViolation(descriptors, versions)
		if !found {
			return disabled
		}

		d.Disable(diag)
		versions.Release(d)
		disabled = append(disabled, diag)
		if r.onDisable != nil {
			r.onDisable(diag)
		}
	}
}

// nextViolation checks conflicts of all enabled descriptors before any
// dependency, matching the order of the two scans in a pass.
func nextViolation(descriptors []*Descriptor, versions *VersionMap) (*Descriptor, Diagnostic, bool) {
	for _, d := range descriptors {
		if !d.IsEnabled() {
			continue
		}
		if diag, bad := checkConflicts(d, versions); bad {
			return d, diag, true
		}
	}
	for _, d := range descriptors {
		if !d.IsEnabled() {
			continue
		}
		if diag, bad := checkDependencies(d, versions); bad {
			return d, diag, true
		}
	}
	return nil, Diagnostic{}, false
}

func checkConflicts(d *Descriptor, versions *VersionMap) (Diagnostic, bool) {
	for _, ref := range d.conflicts {
		owner := versions.Owner(ref.Name())
		if owner == nil || owner == d {
			continue
		}
		if matches, found := ref.Check(versions); matches {
			return Diagnostic{
				Plugin:    d.Name(),
				Reason:    ReasonConflict,
				Reference: ref,
				Found:     found,
				Other:     owner.Name(),
			}, true
		}
	}
	return Diagnostic{}, false
}

func checkDependencies(d *Descriptor, versions *VersionMap) (Diagnostic, bool) {
	for _, ref := range d.dependencies {
		if matches, found := ref.Check(versions); !matches {
			return Diagnostic{
				Plugin:    d.Name(),
				Reason:    ReasonUnmetDependency,
				Reference: ref,
				Found:     found,
			}, true
		}
	}
	return Diagnostic{}, false
}
