// Package consumer materializes audit events from Kafka into the queryable
// store.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custos/internal/audit"
	"custos/internal/platform/kafka/consumer"
	id "custos/pkg/domain"
)

// EventStore is the storage interface for materialized events.
type EventStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler processes audit events from Kafka.
type Handler struct {
	store  EventStore
	logger *slog.Logger
}

func NewHandler(store EventStore, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// eventPayload matches the JSON structure written by the outbox store.
type eventPayload struct {
	ID         string `json:"ID"`
	EntityKind string `json:"EntityKind"`
	EntityID   string `json:"EntityID"`
	Action     string `json:"Action"`
	ActorID    string `json:"ActorID"`
	OccurredAt string `json:"OccurredAt"`
	RequestID  string `json:"RequestID"`
	ClientIP   string `json:"ClientIP"`
	Device     string `json:"Device"`
}

// Handle materializes one audit event. Malformed messages are logged and
// committed so they cannot block the partition; store failures are returned
// for redelivery.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.ErrorContext(ctx, "unparseable audit event key, skipping",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	var body eventPayload
	if err := json.Unmarshal(msg.Value, &body); err != nil {
		h.logger.ErrorContext(ctx, "unparseable audit event payload, skipping",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	entityID, err := id.ParseEntityID(body.EntityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit event carries invalid entity id, skipping",
			"event_id", eventID,
			"entity_id", body.EntityID,
		)
		return nil
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, body.OccurredAt)
	if err != nil {
		// Keep the event rather than lose it; fall back to broker time.
		occurredAt = msg.Timestamp
	}

	event := audit.Event{
		ID:         eventID,
		EntityKind: body.EntityKind,
		EntityID:   entityID,
		Action:     audit.Action(body.Action),
		ActorID:    body.ActorID,
		OccurredAt: occurredAt,
		RequestID:  body.RequestID,
		ClientIP:   body.ClientIP,
		Device:     body.Device,
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		return err
	}
	return nil
}
