// File: api/schemas/decision.go
package schemas

import "fmt"

// ActionType enumerates the closed set of actions the vision engine may
// request. An unrecognized value is a contract violation, never a new
// capability.
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionTypeText ActionType = "type"
	ActionWait     ActionType = "wait"
	ActionComplete ActionType = "complete"
	ActionError    ActionType = "error"
)

// Coordinate is a point in screen pixel space.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Decision is one structured instruction emitted by the vision engine per
// loop iteration. Decisions are transient: created per iteration, consumed
// immediately, never persisted. Reasoning is diagnostic text and is never
// parsed for control flow.
type Decision struct {
	Action     ActionType  `json:"action"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	Text       string      `json:"text,omitempty"`
	Reasoning  string      `json:"reasoning"`
}

// Validate enforces the decision contract. Every field of a decision is
// untrusted input from the inference provider until it passes here.
func (d Decision) Validate() error {
	switch d.Action {
	case ActionClick:
		if d.Coordinate == nil {
			return fmt.Errorf("decision action %q requires a coordinate", d.Action)
		}
	case ActionTypeText:
		if d.Text == "" {
			return fmt.Errorf("decision action %q requires text", d.Action)
		}
	case ActionWait, ActionComplete, ActionError:
	case "":
		return fmt.Errorf("decision is missing the required 'action' field")
	default:
		return fmt.Errorf("unrecognized decision action %q", d.Action)
	}
	if d.Reasoning == "" {
		return fmt.Errorf("decision is missing the required 'reasoning' field")
	}
	return nil
}

// AppDescriptor is a stable platform identifier for an installable or
// launchable application. It is used for detection and launch, never for
// coordinate inference.
type AppDescriptor struct {
	// BundleID is the reverse-DNS application identifier, e.g. "com.acme.app".
	BundleID string `json:"bundle_id"`
	// Name is the human-readable application name used in loop instructions.
	Name string `json:"name"`
}
