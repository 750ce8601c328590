// Package postgres persists audit events using the transactional outbox
// pattern. Events are written to the outbox table in the caller's
// transaction and published to Kafka by the relay; the consumer materializes
// them into audit_events, which serves all queries.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"custos/internal/audit"
	txcontext "custos/pkg/platform/tx"
)

// Store writes the outbox side. Kafka is the source of truth for audit
// events once the relay has published them.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// payload is the JSON structure published to Kafka. Field names match
// audit.Event for proper deserialization by the consumer.
type payload struct {
	ID         string `json:"ID"`
	EntityKind string `json:"EntityKind"`
	EntityID   string `json:"EntityID"`
	Action     string `json:"Action"`
	ActorID    string `json:"ActorID,omitempty"`
	OccurredAt string `json:"OccurredAt"`
	RequestID  string `json:"RequestID,omitempty"`
	ClientIP   string `json:"ClientIP,omitempty"`
	Device     string `json:"Device,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
// When the context carries a transaction, the outbox row commits or rolls
// back together with the entity change it describes.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	body, err := json.Marshal(payload{
		ID:         event.ID.String(),
		EntityKind: event.EntityKind,
		EntityID:   event.EntityID.String(),
		Action:     string(event.Action),
		ActorID:    event.ActorID,
		OccurredAt: event.OccurredAt.Format(time.RFC3339Nano),
		RequestID:  event.RequestID,
		ClientIP:   event.ClientIP,
		Device:     event.Device,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		event.EntityKind,
		event.EntityID.String(),
		string(event.Action),
		body,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// AppendWithID materializes an event into audit_events under a specific ID.
// Used by the Kafka consumer; duplicate deliveries are ignored via
// ON CONFLICT DO NOTHING.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, entity_kind, entity_id, action, actor_id,
			occurred_at, request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	var actorID *string
	if event.ActorID != "" {
		actorID = &event.ActorID
	}

	_, err := s.db.ExecContext(ctx, query,
		eventID,
		event.EntityKind,
		event.EntityID.String(),
		string(event.Action),
		actorID,
		event.OccurredAt,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

var _ audit.Sink = (*Store)(nil)
