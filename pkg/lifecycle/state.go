// Package lifecycle defines the managed-entity state machine and the
// embeddable bases entities compose instead of inheriting.
//
// Invariants:
// - Every managed entity is in exactly one State at a time.
// - Terminated is reachable from any state and is terminal except for an
//   explicit Restore.
// - Strict transitions (Activate, Deactivate, Reactivate, Promote, Demote)
//   reject illegal from-states with a conflict error.
// - SoftDelete and Restore are unconditional mutators: callable from any
//   state, never failing.
package lifecycle

import (
	dErrors "custos/pkg/domain-errors"
)

// State is the lifecycle position of a managed entity. The integer tags fix
// the ordering; the string names are the serialized form.
type State int

const (
	// StateCreated marks an entity that exists but has not been activated.
	// Constructors do not produce it: new records default to StateActive,
	// and StateCreated is reachable only by explicit assignment before the
	// first save.
	StateCreated State = iota
	// StateInactive marks a deactivated entity that can be reactivated.
	StateInactive
	// StateActive is the default working state.
	StateActive
	// StateEffective marks an active entity promoted into effect.
	StateEffective
	// StateTerminated marks a soft-deleted entity. The row stays persisted.
	StateTerminated
)

var stateNames = map[State]string{
	StateCreated:    "created",
	StateInactive:   "inactive",
	StateActive:     "active",
	StateEffective:  "effective",
	StateTerminated: "terminated",
}

var statesByName = map[string]State{
	"created":    StateCreated,
	"inactive":   StateInactive,
	"active":     StateActive,
	"effective":  StateEffective,
	"terminated": StateTerminated,
}

// strictTransitions lists the legal targets of the gated events. SoftDelete
// and Restore are unconditional and intentionally absent.
var strictTransitions = map[State][]State{
	StateCreated:    {StateActive},
	StateActive:     {StateInactive, StateEffective},
	StateInactive:   {StateActive},
	StateEffective:  {StateInactive},
	StateTerminated: {},
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether s is one of the five defined states. Use it to
// guard values read back from storage.
func (s State) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// CanTransitionTo reports whether a gated event may move an entity from s to
// target. It does not cover SoftDelete and Restore, which are never gated.
func (s State) CanTransitionTo(target State) bool {
	for _, allowed := range strictTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseState converts a serialized state name back to a State.
func ParseState(name string) (State, error) {
	if s, ok := statesByName[name]; ok {
		return s, nil
	}
	return StateCreated, dErrors.NewFieldValidation("state", "unknown state name")
}

// MarshalText serializes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "cannot serialize unknown state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name with validation.
func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
