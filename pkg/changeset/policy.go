package changeset

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"custos/pkg/actor"
	"custos/pkg/lifecycle"
	"custos/pkg/requestcontext"
)

var tracer = otel.Tracer("custos/pkg/changeset")

// Policy is the audit enforcement hook a unit of work runs before commit.
//
// Guarantees, per entry kind:
//   - insert: CreatedAt and UpdatedAt are stamped with the same instant;
//     creator and modifier attribution is set when the actor is known; the
//     lifecycle state is left exactly as constructed.
//   - update: UpdatedAt is refreshed, modifier attribution is set when the
//     actor is known, and any caller tampering with CreatedAt or CreatedBy
//     is suppressed from persistence.
//   - delete of a soft-deletable entity: the physical delete is cancelled,
//     the entity is terminated in place and persists as a dirty update with
//     the same protections as any update.
//
// Apply never fails. Actor lookup errors degrade to the anonymous actor, and
// entities lacking a capability simply skip that aspect.
type Policy struct {
	actors   actor.Provider
	clock    func() time.Time
	logger   *slog.Logger
	observer Observer
}

// NewPolicy builds a policy around the given actor provider. A nil provider
// is allowed and behaves like a provider that always resolves Anonymous.
func NewPolicy(actors actor.Provider, opts ...Option) *Policy {
	p := &Policy{
		actors: actors,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply enforces the policy over every pending write in set, in insertion
// order, each entry exactly once.
func (p *Policy) Apply(ctx context.Context, set ChangeSet) {
	ctx, span := tracer.Start(ctx, "changeset.apply")
	defer span.End()

	now := p.now(ctx)
	current := p.resolveActor(ctx)

	entries := set.Entries()
	span.SetAttributes(
		attribute.Int("changeset.entries", len(entries)),
		attribute.Bool("changeset.actor_known", current.Known()),
	)

	for _, entry := range entries {
		switch entry.Op {
		case OpInsert:
			p.applyInsert(entry, now, current)
		case OpUpdate:
			p.applyUpdate(set, entry, now, current)
		case OpDelete:
			p.applyDelete(ctx, set, entry, now, current)
		}
	}
}

func (p *Policy) applyInsert(entry Entry, now time.Time, current actor.Actor) {
	stamped, isStamped := entry.Entity.(lifecycle.Timestamped)
	if isStamped {
		stamped.StampCreated(now)
	}
	if attributable, ok := entry.Entity.(lifecycle.Attributable); ok && current.Known() {
		attributable.AttributeCreator(current.ID)
		attributable.AttributeModifier(current.ID)
	}
	if isStamped {
		p.observe(OpInsert)
	}
}

func (p *Policy) applyUpdate(set ChangeSet, entry Entry, now time.Time, current actor.Actor) {
	stamped, isStamped := entry.Entity.(lifecycle.Timestamped)
	if isStamped {
		stamped.Touch(now)
		set.SuppressField(entry.Entity, FieldCreatedAt)
	}
	if attributable, ok := entry.Entity.(lifecycle.Attributable); ok {
		if current.Known() {
			attributable.AttributeModifier(current.ID)
		}
		set.SuppressField(entry.Entity, FieldCreatedBy)
	}
	if isStamped {
		p.observe(OpUpdate)
	}
}

func (p *Policy) applyDelete(ctx context.Context, set ChangeSet, entry Entry, now time.Time, current actor.Actor) {
	soft, ok := entry.Entity.(lifecycle.SoftDeletable)
	if !ok {
		// Entities outside the lifecycle model are really deleted.
		return
	}

	set.Retain(entry.Entity)
	soft.SoftDelete(now)

	if _, ok := entry.Entity.(lifecycle.Timestamped); ok {
		set.SuppressField(entry.Entity, FieldCreatedAt)
	}
	if attributable, ok := entry.Entity.(lifecycle.Attributable); ok {
		if current.Known() {
			attributable.AttributeModifier(current.ID)
		}
		set.SuppressField(entry.Entity, FieldCreatedBy)
	}

	if p.observer != nil {
		p.observer.DeleteConverted()
	}
	p.observe(OpDelete)

	if identified, ok := entry.Entity.(lifecycle.Identified); ok {
		p.logger.DebugContext(ctx, "physical delete redirected to soft delete",
			"entity_id", identified.EntityID(),
		)
	}
}

// now returns the commit timestamp: an explicit clock when configured,
// otherwise the request-scoped time so every write of a request shares one
// instant.
func (p *Policy) now(ctx context.Context) time.Time {
	if p.clock != nil {
		return p.clock().UTC()
	}
	return requestcontext.Now(ctx).UTC()
}

// resolveActor looks up the current actor once per Apply. A failed lookup
// must never abort the commit; it degrades to Anonymous.
func (p *Policy) resolveActor(ctx context.Context) actor.Actor {
	if p.actors == nil {
		return actor.Anonymous()
	}
	current, err := p.actors.Current(ctx)
	if err != nil {
		p.logger.DebugContext(ctx, "actor resolution failed, proceeding anonymously",
			"error", err,
		)
		return actor.Anonymous()
	}
	return current
}

func (p *Policy) observe(op Op) {
	if p.observer != nil {
		p.observer.EntryStamped(op)
	}
}
