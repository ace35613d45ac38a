package testutil

// ItemData is one registered item of a manifest, written with its keys in order.
type ItemData struct {
	kv [][2]string
}

// Item creates an item for builder with the given id and extra key/value pairs.
func Item(builder, id string, kv ...string) ItemData {
	it := ItemData{kv: [][2]string{{"builder", builder}, {"id", id}}}
	for i := 0; i+1 < len(kv); i += 2 {
		it.kv = append(it.kv, [2]string{kv[i], kv[i+1]})
	}
	return it
}

type refData struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

type builderData struct {
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
}

type registerData struct {
	location string
	items    []ItemData
}

// manifestData holds everything written to one plugin.yaml.
type manifestData struct {
	dir         string
	name        string
	version     string
	author      string
	description string
	provides    []refData
	requires    []refData
	conflicts   []refData
	builders    []builderData
	register    []registerData
	raw         *string
}

func defaultManifest(name string) manifestData {
	return manifestData{dir: name, name: name, version: "1.0.0"}
}

// ManifestOption configures a plugin manifest during builder setup.
type ManifestOption func(*manifestData)

// Version sets the plugin version. An empty string omits the key.
func Version(v string) ManifestOption {
	return func(m *manifestData) { m.version = v }
}

// Author sets the plugin author.
func Author(a string) ManifestOption {
	return func(m *manifestData) { m.author = a }
}

// Description sets the plugin description.
func Description(d string) ManifestOption {
	return func(m *manifestData) { m.description = d }
}

// Dir overrides the directory name, which defaults to the plugin name.
func Dir(dir string) ManifestOption {
	return func(m *manifestData) { m.dir = dir }
}

// Provides adds an extra identity.
func Provides(name, version string) ManifestOption {
	return func(m *manifestData) { m.provides = append(m.provides, refData{name, version}) }
}

// Requires adds a dependency. An empty constraint matches any version.
func Requires(name, constraint string) ManifestOption {
	return func(m *manifestData) { m.requires = append(m.requires, refData{name, constraint}) }
}

// Conflicts adds a conflict. An empty constraint matches any version.
func Conflicts(name, constraint string) ManifestOption {
	return func(m *manifestData) { m.conflicts = append(m.conflicts, refData{name, constraint}) }
}

// DeclareBuilder declares a plugin-defined builder backed by class.
func DeclareBuilder(name, class string) ManifestOption {
	return func(m *manifestData) { m.builders = append(m.builders, builderData{name, class}) }
}

// Register adds items at location.
func Register(location string, items ...ItemData) ManifestOption {
	return func(m *manifestData) { m.register = append(m.register, registerData{location, items}) }
}

// Raw replaces the generated manifest with body, verbatim.
func Raw(body string) ManifestOption {
	return func(m *manifestData) { m.raw = &body }
}
