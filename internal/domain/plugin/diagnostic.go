package plugin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Reason classifies why a plugin ended up disabled.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonUserDisabled
	ReasonLoadFailed
	ReasonIdentityCollision
	ReasonConflict
	ReasonUnmetDependency
	ReasonDuplicateBuilder
)

var reasonNames = map[Reason]string{
	ReasonUnknown:           "unknown",
	ReasonUserDisabled:      "user-disabled",
	ReasonLoadFailed:        "load-failed",
	ReasonIdentityCollision: "identity-collision",
	ReasonConflict:          "conflict",
	ReasonUnmetDependency:   "unmet-dependency",
	ReasonDuplicateBuilder:  "duplicate-builder",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseReason is the inverse of Reason.String.
func ParseReason(s string) Reason {
	for r, name := range reasonNames {
		if name == s {
			return r
		}
	}
	return ReasonUnknown
}

// Diagnostic explains why a plugin was disabled.
type Diagnostic struct {
	Plugin    string
	Reason    Reason
	Reference VersionReference // conflict or dependency that triggered
	Found     *semver.Version  // version of Reference found, nil when absent
	Identity  string           // colliding identity or builder name
	Other     string           // plugin on the other side of a collision or conflict
	Err       error
}

// Message describes the reason without the plugin name.
func (d Diagnostic) Message() string {
	switch d.Reason {
	case ReasonUserDisabled:
		return "disabled by configuration"
	case ReasonLoadFailed:
		return fmt.Sprintf("manifest could not be loaded: %v", d.Err)
	case ReasonIdentityCollision:
		return fmt.Sprintf("identity %q is already provided by %s", d.Identity, d.Other)
	case ReasonConflict:
		return fmt.Sprintf("conflicts with %s, version %s is installed by %s", d.Reference, d.Found, d.Other)
	case ReasonUnmetDependency:
		if d.Found == nil {
			return fmt.Sprintf("requires %s, not present", d.Reference)
		}
		return fmt.Sprintf("requires %s but version %s is installed", d.Reference, d.Found)
	case ReasonDuplicateBuilder:
		if d.Other == "" {
			return fmt.Sprintf("builder %q is already registered", d.Identity)
		}
		return fmt.Sprintf("builder %q is already registered by %s", d.Identity, d.Other)
	default:
		if d.Err != nil {
			return d.Err.Error()
		}
		return "disabled"
	}
}

func (d Diagnostic) String() string {
	return d.Plugin + ": " + d.Message()
}

// Record flattens the diagnostic for persistence.
func (d Diagnostic) Record() DiagnosticRecord {
	return DiagnosticRecord{
		Plugin:  d.Plugin,
		Reason:  d.Reason.String(),
		Message: d.Message(),
	}
}

// DiagnosticRecord is the persisted form of a Diagnostic.
type DiagnosticRecord struct {
	Plugin  string
	Reason  string
	Message string
}
