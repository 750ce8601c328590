package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"custos/internal/audit"
	id "custos/pkg/domain"
)

// Reader serves trail queries from the materialized audit_events table over
// a pgx pool, keeping read traffic off the transactional database/sql pool.
type Reader struct {
	pool *pgxpool.Pool
}

func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

const selectColumns = `
	SELECT id, entity_kind, entity_id, action, actor_id,
	       occurred_at, request_id, client_ip, device
	FROM audit_events
`

// ListByEntity returns an entity's full trail, oldest first.
func (r *Reader) ListByEntity(ctx context.Context, entityID id.EntityID) ([]audit.Event, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` WHERE entity_id = $1 ORDER BY occurred_at ASC`, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the newest events first, capped at limit.
func (r *Reader) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows pgxRows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			entityID string
			action   string
			actorID  *string
		)
		if err := rows.Scan(
			&event.ID,
			&event.EntityKind,
			&entityID,
			&action,
			&actorID,
			&event.OccurredAt,
			&event.RequestID,
			&event.ClientIP,
			&event.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		parsed, err := id.ParseEntityID(entityID)
		if err != nil {
			return nil, fmt.Errorf("stored entity id %q: %w", entityID, err)
		}
		event.EntityID = parsed
		event.Action = audit.Action(action)
		if actorID != nil {
			event.ActorID = *actorID
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

var _ audit.Trail = (*Reader)(nil)
