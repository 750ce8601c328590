package lifecycle

import (
	"time"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Record is the embeddable base every managed entity carries: identity,
// lifecycle state, and the two audit timestamps.
//
// Invariants:
//   - ID is set once at construction and never reassigned.
//   - State is always one of the five defined states.
//   - CreatedAt and UpdatedAt are stamped in UTC by the enforcement policy;
//     entities never stamp themselves on save.
//
// New records default to StateActive. StateCreated is reachable only by
// assigning it explicitly before the first save.
type Record struct {
	ID        id.EntityID `json:"id"`
	State     State       `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewRecord builds a base in the default state. The caller supplies an
// already-validated entity ID; boundaries parse with id.ParseEntityID.
func NewRecord(entityID id.EntityID) Record {
	return Record{ID: entityID, State: StateActive}
}

// EntityID returns the identity of the record.
func (r *Record) EntityID() id.EntityID {
	return r.ID
}

// CurrentState returns the lifecycle state of the record.
func (r *Record) CurrentState() State {
	return r.State
}

// StampCreated sets both audit timestamps to now. Called by the enforcement
// policy when the record is first persisted.
func (r *Record) StampCreated(now time.Time) {
	r.CreatedAt = now.UTC()
	r.UpdatedAt = now.UTC()
}

// Touch refreshes the modification timestamp.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}

// -----------------------------------------------------------------------------
// Unconditional mutators
// -----------------------------------------------------------------------------

// SoftDelete moves the record to Terminated. Callable from any state and
// idempotent: deleting an already-terminated record keeps it terminated and
// still refreshes UpdatedAt.
func (r *Record) SoftDelete(now time.Time) {
	r.State = StateTerminated
	r.Touch(now)
}

// Restore moves the record back to Active. Callable from any state, not just
// Terminated.
func (r *Record) Restore(now time.Time) {
	r.State = StateActive
	r.Touch(now)
}

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

// IsCreated reports whether the record has not yet been activated.
func (r *Record) IsCreated() bool { return r.State == StateCreated }

// IsInactive reports whether the record has been deactivated.
func (r *Record) IsInactive() bool { return r.State == StateInactive }

// IsActive reports whether the record is in the default working state.
func (r *Record) IsActive() bool { return r.State == StateActive }

// IsEffective reports whether the record has been promoted into effect.
func (r *Record) IsEffective() bool { return r.State == StateEffective }

// IsTerminated reports whether the record has been soft-deleted.
func (r *Record) IsTerminated() bool { return r.State == StateTerminated }

// -----------------------------------------------------------------------------
// Gated transitions
// -----------------------------------------------------------------------------

// CanActivate checks whether the record may move from Created to Active.
func (r *Record) CanActivate() error {
	if r.State != StateCreated {
		return dErrors.Newf(dErrors.CodeConflict, "cannot activate a record in state %s", r.State)
	}
	return nil
}

// ApplyActivation transitions the record to Active.
func (r *Record) ApplyActivation(now time.Time) {
	r.State = StateActive
	r.Touch(now)
}

// Activate combines the check and the transition for callers that do not
// need to separate validation from mutation.
func (r *Record) Activate(now time.Time) error {
	if err := r.CanActivate(); err != nil {
		return err
	}
	r.ApplyActivation(now)
	return nil
}

// CanDeactivate checks whether the record may move from Active to Inactive.
func (r *Record) CanDeactivate() error {
	if r.State != StateActive {
		return dErrors.Newf(dErrors.CodeConflict, "cannot deactivate a record in state %s", r.State)
	}
	return nil
}

// ApplyDeactivation transitions the record to Inactive.
func (r *Record) ApplyDeactivation(now time.Time) {
	r.State = StateInactive
	r.Touch(now)
}

// Deactivate combines the check and the transition.
func (r *Record) Deactivate(now time.Time) error {
	if err := r.CanDeactivate(); err != nil {
		return err
	}
	r.ApplyDeactivation(now)
	return nil
}

// CanReactivate checks whether the record may move from Inactive to Active.
func (r *Record) CanReactivate() error {
	if r.State != StateInactive {
		return dErrors.Newf(dErrors.CodeConflict, "cannot reactivate a record in state %s", r.State)
	}
	return nil
}

// ApplyReactivation transitions the record back to Active.
func (r *Record) ApplyReactivation(now time.Time) {
	r.State = StateActive
	r.Touch(now)
}

// Reactivate combines the check and the transition.
func (r *Record) Reactivate(now time.Time) error {
	if err := r.CanReactivate(); err != nil {
		return err
	}
	r.ApplyReactivation(now)
	return nil
}

// CanPromote checks whether the record may move from Active to Effective.
func (r *Record) CanPromote() error {
	if r.State != StateActive {
		return dErrors.Newf(dErrors.CodeConflict, "cannot promote a record in state %s", r.State)
	}
	return nil
}

// ApplyPromotion transitions the record to Effective.
func (r *Record) ApplyPromotion(now time.Time) {
	r.State = StateEffective
	r.Touch(now)
}

// Promote combines the check and the transition.
func (r *Record) Promote(now time.Time) error {
	if err := r.CanPromote(); err != nil {
		return err
	}
	r.ApplyPromotion(now)
	return nil
}

// CanDemote checks whether the record may move from Effective to Inactive.
func (r *Record) CanDemote() error {
	if r.State != StateEffective {
		return dErrors.Newf(dErrors.CodeConflict, "cannot demote a record in state %s", r.State)
	}
	return nil
}

// ApplyDemotion transitions the record to Inactive.
func (r *Record) ApplyDemotion(now time.Time) {
	r.State = StateInactive
	r.Touch(now)
}

// Demote combines the check and the transition.
func (r *Record) Demote(now time.Time) error {
	if err := r.CanDemote(); err != nil {
		return err
	}
	r.ApplyDemotion(now)
	return nil
}
