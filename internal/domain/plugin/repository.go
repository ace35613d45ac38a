package plugin

import "time"

// ResolutionRun is the outcome of one load and resolve cycle.
type ResolutionRun struct {
	ID          string
	CreatedAt   time.Time
	Enabled     []string
	Diagnostics []DiagnosticRecord
}

// StateRepository persists user plugin state and resolution history.
type StateRepository interface {
	// DisabledPlugins returns the names the user disabled, sorted.
	DisabledPlugins() ([]string, error)

	// SetDisabled records whether the user disabled the plugin called name.
	SetDisabled(name string, disabled bool) error

	// SaveRun stores a resolution run and its diagnostics.
	SaveRun(run *ResolutionRun) error

	// LatestRun returns the most recent run, or ErrRunNotFound.
	LatestRun() (*ResolutionRun, error)
}
