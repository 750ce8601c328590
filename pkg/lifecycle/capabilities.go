package lifecycle

import (
	"time"

	id "custos/pkg/domain"
)

// Capability interfaces. The enforcement policy discovers what a tracked
// entity supports by type assertion against these; an entity opts in by
// embedding the matching base. Nothing inherits from anything.

// Identified exposes the entity identity.
type Identified interface {
	EntityID() id.EntityID
}

// Timestamped entities carry policy-managed audit timestamps.
type Timestamped interface {
	StampCreated(now time.Time)
	Touch(now time.Time)
}

// SoftDeletable entities are terminated in place instead of being physically
// deleted.
type SoftDeletable interface {
	SoftDelete(now time.Time)
	Restore(now time.Time)
	CurrentState() State
}

// Attributable entities record which actor created and last modified them.
type Attributable interface {
	AttributeCreator(actorID id.ActorID)
	AttributeModifier(actorID id.ActorID)
}

// Owned entities belong to a single actor or to everyone.
type Owned interface {
	IsOwnedBy(actorID id.ActorID) bool
	IsGlobal() bool
}

// Attribution is the embeddable base for actor attribution. Nil pointers mean
// the action was performed without a known actor.
type Attribution struct {
	CreatedBy *id.ActorID `json:"created_by,omitempty"`
	UpdatedBy *id.ActorID `json:"updated_by,omitempty"`
}

// AttributeCreator records the creating actor. Called once by the enforcement
// policy at first persist.
func (a *Attribution) AttributeCreator(actorID id.ActorID) {
	a.CreatedBy = &actorID
}

// AttributeModifier records the most recent modifying actor.
func (a *Attribution) AttributeModifier(actorID id.ActorID) {
	a.UpdatedBy = &actorID
}

// Ownership is the embeddable base for owned entities. A nil OwnerID marks a
// global entity shared by every actor.
type Ownership struct {
	OwnerID *id.ActorID `json:"owner_id,omitempty"`
}

// AssignOwner sets the owning actor.
func (o *Ownership) AssignOwner(actorID id.ActorID) {
	o.OwnerID = &actorID
}

// ReleaseOwner makes the entity global again.
func (o *Ownership) ReleaseOwner() {
	o.OwnerID = nil
}

// IsOwnedBy reports whether actorID may treat the entity as its own. Global
// entities are owned by every actor, including the zero actor.
func (o *Ownership) IsOwnedBy(actorID id.ActorID) bool {
	if o.OwnerID == nil {
		return true
	}
	return *o.OwnerID == actorID
}

// IsGlobal reports whether the entity has no owner.
func (o *Ownership) IsGlobal() bool {
	return o.OwnerID == nil
}

// Compile-time capability conformance of the embeddable bases.
var (
	_ Identified    = (*Record)(nil)
	_ Timestamped   = (*Record)(nil)
	_ SoftDeletable = (*Record)(nil)
	_ Attributable  = (*Attribution)(nil)
	_ Owned         = (*Ownership)(nil)
)
