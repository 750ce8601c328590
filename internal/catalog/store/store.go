// Package store defines the persistence contract for catalog items.
//
// Implementations collect writes into a transaction-scoped unit of work that
// doubles as the change set the audit enforcement policy operates on. The
// commit sequence is always Begin, Stage, Policy.Apply, Commit.
package store

import (
	"context"

	"custos/internal/catalog/models"
	"custos/pkg/changeset"
	id "custos/pkg/domain"
)

// Store provides read access to catalog items and opens units of work for
// writes. Read methods report sentinel.ErrNotFound for missing items.
type Store interface {
	// Begin opens a unit of work. Callers must finish it with Commit or
	// Rollback.
	Begin(ctx context.Context) (Tx, error)

	// Get loads one item regardless of lifecycle state, so terminated
	// items stay addressable for restore.
	Get(ctx context.Context, entityID id.EntityID) (*models.Item, error)

	// List returns every item that is not terminated, oldest first.
	List(ctx context.Context) ([]*models.Item, error)

	// ListByOwner returns the non-terminated items an actor owns, oldest
	// first. Global items belong to every actor and are included.
	ListByOwner(ctx context.Context, ownerID id.ActorID) ([]*models.Item, error)
}

// Tx is a unit of work over catalog items. It implements changeset.ChangeSet
// so the enforcement policy can stamp, shield, and redirect the staged writes
// immediately before Commit.
type Tx interface {
	changeset.ChangeSet

	// Stage records a pending write. The item pointer stays live until
	// Commit so policy mutations reach the persisted row.
	Stage(item *models.Item, op changeset.Op)

	// Context binds the underlying transaction to ctx, letting
	// collaborators such as the audit outbox join the same commit.
	Context(ctx context.Context) context.Context

	// Commit validates and persists the staged writes in insertion order.
	Commit(ctx context.Context) error

	// Rollback discards the unit of work. Calling it after Commit is a
	// no-op.
	Rollback() error
}
