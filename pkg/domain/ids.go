// Package domain holds the typed identifiers shared across the module.
//
// IDs are distinct UUID-backed types so an actor ID can never be passed where
// an entity ID is expected. Parsing enforces the trust-boundary invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "custos/pkg/domain-errors"
)

// ActorID identifies the person or service performing an operation.
type ActorID uuid.UUID

// EntityID identifies a managed entity.
type EntityID uuid.UUID

// NewActorID returns a random actor ID.
func NewActorID() ActorID {
	return ActorID(uuid.New())
}

// NewEntityID returns a random entity ID.
func NewEntityID() EntityID {
	return EntityID(uuid.New())
}

// ParseActorID parses and validates an actor ID from its string form.
func ParseActorID(s string) (ActorID, error) {
	parsed, err := parseID(s, "actor id")
	return ActorID(parsed), err
}

// ParseEntityID parses and validates an entity ID from its string form.
func ParseEntityID(s string) (EntityID, error) {
	parsed, err := parseID(s, "entity id")
	return EntityID(parsed), err
}

func parseID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.NewFieldValidation(label, "must not be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.NewFieldValidation(label, "must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.NewFieldValidation(label, "must not be the nil UUID")
	}
	return parsed, nil
}

func (a ActorID) String() string { return uuid.UUID(a).String() }

// IsNil reports whether the ID is the zero value.
func (a ActorID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

// MarshalText serializes the ID for JSON and text encodings.
func (a ActorID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the ID with full validation.
func (a *ActorID) UnmarshalText(b []byte) error {
	parsed, err := ParseActorID(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (e EntityID) String() string { return uuid.UUID(e).String() }

// IsNil reports whether the ID is the zero value.
func (e EntityID) IsNil() bool { return uuid.UUID(e) == uuid.Nil }

// MarshalText serializes the ID for JSON and text encodings.
func (e EntityID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses the ID with full validation.
func (e *EntityID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntityID(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
