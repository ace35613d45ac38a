package testutil

// WithConflictScenario adds plugins A, B and C where C conflicts with the
// identity X installed by A, so C ends up disabled.
func (b *Builder) WithConflictScenario() *Builder {
	return b.
		WithPlugin("A", Provides("X", "1.0.0")).
		WithPlugin("B", Requires("A", "")).
		WithPlugin("C", Conflicts("X", ">=1.0.0"))
}

// WithCascadeScenario adds a dependency chain that collapses:
//
//	core 0.9.0 <- ui (>=1.0) <- theme <- extra
func (b *Builder) WithCascadeScenario() *Builder {
	return b.
		WithPlugin("core", Version("0.9.0")).
		WithPlugin("ui", Requires("core", ">=1.0")).
		WithPlugin("theme", Requires("ui", "")).
		WithPlugin("extra", Requires("theme", ""))
}

// WithMenuScenario adds three plugins contributing ordered items to /Home/Menu.
// The resulting order is photos, videos, music.
func (b *Builder) WithMenuScenario() *Builder {
	return b.
		WithPlugin("music",
			Register("/Home/Menu", Item("Instance", "music", "insertafter", "videos", "class", "menu.Action", "text", "Music"))).
		WithPlugin("photos",
			Register("/Home/Menu", Item("Instance", "photos", "class", "menu.Action", "text", "Photos"))).
		WithPlugin("videos",
			Register("/Home/Menu", Item("Instance", "videos", "insertbefore", "music", "class", "menu.Action", "text", "Videos")))
}
