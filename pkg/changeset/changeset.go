// Package changeset defines the unit-of-work contract between storage layers
// and the audit enforcement policy.
//
// A storage layer collects pending writes into a ChangeSet and hands it to
// Policy.Apply immediately before commit. The policy stamps audit fields,
// redirects physical deletes of soft-deletable entities, and shields the
// creation fields from tampering. The policy consumes the contract; it never
// implements it.
package changeset

// Op identifies the kind of pending write recorded for an entity.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Persisted column names the policy shields from caller tampering.
const (
	FieldCreatedAt = "created_at"
	FieldCreatedBy = "created_by"
)

// Entry is one pending write: the tracked entity and the operation the unit
// of work intends to perform on it. Entity is a pointer into the caller's
// object graph so policy mutations are visible to the eventual commit.
type Entry struct {
	Entity any
	Op     Op
}

// ChangeSet is the view of a unit of work the policy operates on.
//
// Implementations must return Entries in insertion order and keep the order
// stable across calls, so a commit is processed deterministically.
type ChangeSet interface {
	// Entries returns a snapshot of the pending writes in the order they
	// were recorded.
	Entries() []Entry

	// Retain cancels a pending physical delete for entity: the row stays
	// persisted and the entity remains tracked as a dirty update so its
	// refreshed fields reach the store.
	Retain(entity any)

	// SuppressField excludes one named persisted field of entity from the
	// current commit. The in-memory object may hold any value; the store
	// must not receive it.
	SuppressField(entity any, field string)
}

// Observer receives policy outcomes, typically for metrics. Implementations
// must be safe for concurrent use.
type Observer interface {
	// EntryStamped fires once per processed entry that the policy touched.
	EntryStamped(op Op)
	// DeleteConverted fires when a physical delete was redirected to a
	// soft delete.
	DeleteConverted()
}
