// Package memory stores catalog items in process memory for tests and dev.
//
// The unit of work buffers staged writes and applies them atomically under
// the store lock, so a failed commit leaves the store untouched. Suppressed
// fields are restored from the stored row at commit time, which makes the
// enforcement policy's tamper shielding observable without SQL.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"sync"

	"custos/internal/catalog/models"
	"custos/internal/catalog/store"
	"custos/pkg/changeset"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*tx)(nil)
)

// Store keeps item snapshots keyed by entity ID. Reads return clones so
// callers can never mutate stored state outside a unit of work.
type Store struct {
	mu    sync.RWMutex
	items map[id.EntityID]*models.Item
	order []id.EntityID
}

// New constructs an empty in-memory catalog store.
func New() *Store {
	return &Store{items: make(map[id.EntityID]*models.Item)}
}

func (s *Store) Begin(_ context.Context) (store.Tx, error) {
	return &tx{store: s}, nil
}

func (s *Store) Get(_ context.Context, entityID id.EntityID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[entityID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", entityID, sentinel.ErrNotFound)
	}
	return item.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*models.Item, 0, len(s.order))
	for _, entityID := range s.order {
		item, ok := s.items[entityID]
		if !ok || item.IsTerminated() {
			continue
		}
		items = append(items, item.Clone())
	}
	return items, nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID id.ActorID) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*models.Item
	for _, entityID := range s.order {
		item, ok := s.items[entityID]
		if !ok || item.IsTerminated() || !item.IsOwnedBy(ownerID) {
			continue
		}
		items = append(items, item.Clone())
	}
	return items, nil
}

// Len reports the number of stored items, terminated included. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// tx buffers staged writes until Commit. It satisfies changeset.ChangeSet;
// the enforcement policy rewrites ops and suppression marks through that
// interface before the buffered writes are applied.
type tx struct {
	store      *Store
	entries    []changeset.Entry
	suppressed map[any]map[string]bool
	done       bool
}

func (t *tx) Stage(item *models.Item, op changeset.Op) {
	t.entries = append(t.entries, changeset.Entry{Entity: item, Op: op})
}

func (t *tx) Entries() []changeset.Entry {
	return slices.Clone(t.entries)
}

func (t *tx) Retain(entity any) {
	for i := range t.entries {
		if t.entries[i].Entity == entity && t.entries[i].Op == changeset.OpDelete {
			t.entries[i].Op = changeset.OpUpdate
		}
	}
}

func (t *tx) SuppressField(entity any, field string) {
	if t.suppressed == nil {
		t.suppressed = make(map[any]map[string]bool)
	}
	fields, ok := t.suppressed[entity]
	if !ok {
		fields = make(map[string]bool)
		t.suppressed[entity] = fields
	}
	fields[field] = true
}

// Context is a pass-through: the in-memory store has no driver transaction
// for collaborators to join.
func (t *tx) Context(ctx context.Context) context.Context {
	return ctx
}

// Commit applies the staged writes in insertion order against a scratch copy
// of the store, then swaps it in. Validation failures leave the store
// untouched.
func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return sql.ErrTxDone
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	next := maps.Clone(t.store.items)
	order := slices.Clone(t.store.order)

	for _, entry := range t.entries {
		item, ok := entry.Entity.(*models.Item)
		if !ok {
			return fmt.Errorf("staged entity is not an item: %w", sentinel.ErrInvalidState)
		}
		entityID := item.EntityID()
		stored, exists := next[entityID]

		switch entry.Op {
		case changeset.OpInsert:
			if exists {
				return fmt.Errorf("item %s: %w", entityID, sentinel.ErrConflict)
			}
			next[entityID] = item.Clone()
			order = append(order, entityID)
		case changeset.OpUpdate:
			if !exists {
				return fmt.Errorf("item %s: %w", entityID, sentinel.ErrNotFound)
			}
			next[entityID] = t.restoreSuppressed(entry.Entity, item.Clone(), stored)
		case changeset.OpDelete:
			if !exists {
				return fmt.Errorf("item %s: %w", entityID, sentinel.ErrNotFound)
			}
			delete(next, entityID)
			order = slices.DeleteFunc(order, func(other id.EntityID) bool {
				return other == entityID
			})
		}
	}

	t.store.items = next
	t.store.order = order
	t.done = true
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.entries = nil
	t.suppressed = nil
	t.done = true
	return nil
}

// restoreSuppressed writes the stored row's value back over any field the
// policy excluded from this commit. The in-memory entity keeps whatever the
// caller set; the persisted snapshot must not.
func (t *tx) restoreSuppressed(entity any, clone, stored *models.Item) *models.Item {
	fields := t.suppressed[entity]
	if len(fields) == 0 {
		return clone
	}
	if fields[changeset.FieldCreatedAt] {
		clone.CreatedAt = stored.CreatedAt
	}
	if fields[changeset.FieldCreatedBy] {
		if stored.CreatedBy == nil {
			clone.CreatedBy = nil
		} else {
			createdBy := *stored.CreatedBy
			clone.CreatedBy = &createdBy
		}
	}
	return clone
}
