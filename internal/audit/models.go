// Package audit records who did what to which entity. Events flow from the
// recorder through a store; in postgres mode the store is a transactional
// outbox relayed to Kafka and materialized back into a queryable table.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "custos/pkg/domain"
)

// Action names the lifecycle operation an event records.
type Action string

const (
	ActionCreated     Action = "created"
	ActionUpdated     Action = "updated"
	ActionSoftDeleted Action = "soft_deleted"
	ActionRestored    Action = "restored"
	ActionActivated   Action = "activated"
	ActionDeactivated Action = "deactivated"
	ActionPromoted    Action = "promoted"
	ActionDemoted     Action = "demoted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID
	EntityKind string
	EntityID   id.EntityID
	Action     Action
	// ActorID is the UUID string of the acting identity; empty when the
	// operation ran anonymously.
	ActorID    string
	OccurredAt time.Time
	RequestID  string
	ClientIP   string
	Device     string
}

// Sink accepts events for persistence or forwarding.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Trail answers queries over recorded events. In postgres mode it is served
// from the materialized table, not the outbox.
type Trail interface {
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Store combines both sides for backends that keep a single table.
type Store interface {
	Sink
	Trail
}
