package plugins

import (
	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

// PluginEvent is published when a plugin changes state or the whole set is
// reloaded. Plugin is empty for reload events.
type PluginEvent struct {
	RunID      string
	Plugin     string
	State      plugin.State
	Diagnostic *plugin.Diagnostic
}

func stateEvent(runID string, d *plugin.Descriptor) PluginEvent {
	return PluginEvent{RunID: runID, Plugin: d.Name(), State: d.State(), Diagnostic: d.Reason()}
}
