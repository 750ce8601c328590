// Package service orchestrates catalog item operations: authorization,
// lifecycle transitions, the enforcement policy, and the audit trail.
//
// Every mutation runs through one unit of work. The policy stamps the staged
// writes immediately before commit, and the audit event joins the same
// transaction when the store supports it, so an item change and its trail
// entry land together or not at all.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/audit"
	"custos/internal/catalog/models"
	"custos/internal/catalog/store"
	"custos/internal/platform/metrics"
	"custos/pkg/actor"
	"custos/pkg/changeset"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

var tracer = otel.Tracer("custos/internal/catalog/service")

const entityKind = "item"

// RoleAdmin may mutate any item regardless of ownership.
const RoleAdmin = "admin"

// Service carries catalog use cases. Reads are open; mutations require an
// authenticated actor and ownership of the item (or the admin role).
type Service struct {
	store    store.Store
	policy   *changeset.Policy
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService wires the catalog use cases. metrics may be nil when the
// instruments are not registered (tests, CLI tools); logger may be nil for
// the default logger.
func NewService(st store.Store, policy *changeset.Policy, recorder *audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, policy: policy, recorder: recorder, metrics: m, logger: logger}
}

// CreateItemInput carries the caller-supplied fields for a new item. Global
// items have no owner and are shared by every actor.
type CreateItemInput struct {
	Name   string
	Notes  string
	Tags   []string
	Global bool
}

// UpdateItemInput carries a partial update. Nil fields keep their stored
// value.
type UpdateItemInput struct {
	Name  *string
	Notes *string
	Tags  *[]string
}

// Create validates and persists a new item. Unless input marks the item
// global, the creating actor becomes its owner.
func (s *Service) Create(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	current, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	item, err := models.NewItem(input.Name, input.Notes, input.Tags)
	if err != nil {
		return nil, err
	}
	if !input.Global {
		item.AssignOwner(current.ID)
	}

	if err := s.commit(ctx, item, changeset.OpInsert, audit.ActionCreated, current); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ItemsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "item created",
		"item_id", item.EntityID(),
		"actor_id", current.ID,
		"global", input.Global,
	)
	return item, nil
}

// Get loads one item in any lifecycle state. Reads are open to anonymous
// callers.
func (s *Service) Get(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	return s.load(ctx, entityID)
}

// List returns every non-terminated item, oldest first.
func (s *Service) List(ctx context.Context) ([]*models.Item, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return items, nil
}

// ListByOwner returns the non-terminated items ownerID owns, global items
// included.
func (s *Service) ListByOwner(ctx context.Context, ownerID id.ActorID) ([]*models.Item, error) {
	items, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return items, nil
}

// Update applies a partial update to the item's content fields. Terminated
// items reject updates; restore them first.
func (s *Service) Update(ctx context.Context, entityID id.EntityID, input UpdateItemInput) (*models.Item, error) {
	current, item, err := s.loadForWrite(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if item.IsTerminated() {
		return nil, dErrors.New(dErrors.CodeConflict, "item is terminated")
	}

	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Notes != nil {
		item.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.Tags != nil {
		item.Tags = *input.Tags
	}
	item.NormalizeTags()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, item, changeset.OpUpdate, audit.ActionUpdated, current); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete terminates the item in place. The enforcement policy redirects the
// staged physical delete to a soft delete, so the row survives with its
// audit trail. Deleting a terminated item is a refresh, not an error.
func (s *Service) Delete(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	current, item, err := s.loadForWrite(ctx, entityID)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, item, changeset.OpDelete, audit.ActionSoftDeleted, current); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "item terminated",
		"item_id", item.EntityID(),
		"actor_id", current.ID,
	)
	return item, nil
}

// Restore brings an item back to Active from any state, the terminated one
// included.
func (s *Service) Restore(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	item, err := s.mutate(ctx, entityID, audit.ActionRestored, func(item *models.Item, now time.Time) error {
		item.Restore(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ItemsRestored.Inc()
	}
	return item, nil
}

// Activate brings a created or inactive item to Active. Both entry paths
// share the endpoint; the record enforces which one applies.
func (s *Service) Activate(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	return s.mutate(ctx, entityID, audit.ActionActivated, func(item *models.Item, now time.Time) error {
		if item.IsInactive() {
			return item.Reactivate(now)
		}
		return item.Activate(now)
	})
}

// Deactivate parks an active item.
func (s *Service) Deactivate(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	return s.mutate(ctx, entityID, audit.ActionDeactivated, func(item *models.Item, now time.Time) error {
		return item.Deactivate(now)
	})
}

// Promote locks an active item into the effective state.
func (s *Service) Promote(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	return s.mutate(ctx, entityID, audit.ActionPromoted, func(item *models.Item, now time.Time) error {
		return item.Promote(now)
	})
}

// Demote retires an effective item to Inactive.
func (s *Service) Demote(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	return s.mutate(ctx, entityID, audit.ActionDemoted, func(item *models.Item, now time.Time) error {
		return item.Demote(now)
	})
}

// mutate runs one state transition in a unit of work: authorize, apply the
// transition at the request-scoped instant, commit with the policy applied.
func (s *Service) mutate(ctx context.Context, entityID id.EntityID, action audit.Action, apply func(item *models.Item, now time.Time) error) (*models.Item, error) {
	current, item, err := s.loadForWrite(ctx, entityID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	if err := apply(item, now); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, item, changeset.OpUpdate, action, current); err != nil {
		return nil, err
	}
	return item, nil
}

// loadForWrite resolves the actor, loads the item, and checks ownership.
func (s *Service) loadForWrite(ctx context.Context, entityID id.EntityID) (actor.Actor, *models.Item, error) {
	current, err := requireActor(ctx)
	if err != nil {
		return actor.Actor{}, nil, err
	}
	item, err := s.load(ctx, entityID)
	if err != nil {
		return actor.Actor{}, nil, err
	}
	if !item.IsOwnedBy(current.ID) && !current.HasRole(RoleAdmin) {
		return actor.Actor{}, nil, dErrors.New(dErrors.CodeForbidden, "actor does not own this item")
	}
	return current, item, nil
}

func (s *Service) load(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	item, err := s.store.Get(ctx, entityID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return item, nil
}

// commit stages one write, applies the enforcement policy, records the audit
// event inside the store transaction, and commits.
func (s *Service) commit(ctx context.Context, item *models.Item, op changeset.Op, action audit.Action, current actor.Actor) error {
	ctx, span := tracer.Start(ctx, "catalog.commit", trace.WithAttributes(
		attribute.String("item.op", string(op)),
		attribute.String("item.action", string(action)),
	))
	defer span.End()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to open unit of work")
	}
	defer func() { _ = tx.Rollback() }()

	tx.Stage(item, op)
	s.policy.Apply(ctx, tx)

	event := audit.Event{
		EntityKind: entityKind,
		EntityID:   item.EntityID(),
		Action:     action,
	}
	if current.Known() {
		event.ActorID = current.ID.String()
	}
	if err := s.recorder.Emit(tx.Context(ctx), event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}

	if err := tx.Commit(ctx); err != nil {
		return translateStoreErr(err)
	}
	return nil
}

func requireActor(ctx context.Context) (actor.Actor, error) {
	current, _ := actor.FromContext(ctx)
	if !current.Known() {
		return actor.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return current, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "item not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "item already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "catalog store failure")
	}
}
