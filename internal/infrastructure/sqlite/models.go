package sqlite

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// RunModel is a row of resolution_runs. Times are Unix milliseconds.
type RunModel struct {
	ID        int64
	GUID      string
	CreatedAt int64
	Enabled   string // JSON array of plugin names
}

// DiagnosticModel is a row of run_diagnostics.
type DiagnosticModel struct {
	RunID   int64
	Seq     int
	Plugin  string
	Reason  string
	Message string
}

func toRunModel(r *plugin.ResolutionRun) (*RunModel, error) {
	enabled := r.Enabled
	if enabled == nil {
		enabled = []string{}
	}
	data, err := json.Marshal(enabled)
	if err != nil {
		return nil, err
	}
	return &RunModel{
		GUID:      r.ID,
		CreatedAt: r.CreatedAt.UnixMilli(),
		Enabled:   string(data),
	}, nil
}

func (m *RunModel) toDomain(diags []DiagnosticModel) *plugin.ResolutionRun {
	var enabled []string
	_ = json.Unmarshal([]byte(m.Enabled), &enabled)

	run := &plugin.ResolutionRun{
		ID:        m.GUID,
		CreatedAt: time.UnixMilli(m.CreatedAt),
		Enabled:   enabled,
	}
	for _, d := range diags {
		run.Diagnostics = append(run.Diagnostics, plugin.DiagnosticRecord{
			Plugin:  d.Plugin,
			Reason:  d.Reason,
			Message: d.Message,
		})
	}
	return run
}
