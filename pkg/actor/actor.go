// Package actor defines who is performing an operation and how the rest of
// the module learns about it.
//
// The enforcement policy and services receive a Provider explicitly at
// construction; there is no package-level current actor. HTTP middleware
// resolves credentials into an Actor and stores it on the request context,
// and ContextProvider reads it back out.
package actor

import (
	"context"
	"slices"

	id "custos/pkg/domain"
)

// Actor is the resolved identity of the caller. The zero value is the
// anonymous actor.
type Actor struct {
	ID            id.ActorID
	Name          string
	Email         string
	Authenticated bool
	Roles         []string
}

// Anonymous returns the actor used when nobody is known: unauthenticated,
// nil ID, no roles.
func Anonymous() Actor {
	return Actor{}
}

// Known reports whether the actor can be attributed: authenticated with a
// usable ID.
func (a Actor) Known() bool {
	return a.Authenticated && !a.ID.IsNil()
}

// HasRole reports whether the actor carries the named role. Role semantics
// belong to the caller; this module never interprets them.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// Provider resolves the current actor for an operation.
//
// A Provider returning an error means the lookup itself failed; callers must
// degrade to Anonymous and proceed rather than abort. An absent actor is not
// an error.
type Provider interface {
	Current(ctx context.Context) (Actor, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Actor, error)

func (f ProviderFunc) Current(ctx context.Context) (Actor, error) {
	return f(ctx)
}

// Fixed returns a Provider that always resolves the same actor. Useful for
// workers, CLI commands, and tests.
func Fixed(a Actor) Provider {
	return ProviderFunc(func(context.Context) (Actor, error) {
		return a, nil
	})
}
