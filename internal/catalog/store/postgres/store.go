// Package postgres persists catalog items in PostgreSQL.
//
// The unit of work wraps one database transaction. Update statements never
// list the creation columns, so the enforcement policy's field suppression
// holds structurally: a tampered created_at or created_by cannot reach the
// row no matter what the in-memory entity says.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"custos/internal/catalog/models"
	"custos/internal/catalog/store"
	"custos/pkg/changeset"
	id "custos/pkg/domain"
	"custos/pkg/lifecycle"
	"custos/pkg/platform/sentinel"
	txcontext "custos/pkg/platform/tx"
)

const uniqueViolation = "23505"

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*tx)(nil)
)

const selectColumns = "id, name, notes, tags, state, created_at, updated_at, created_by, updated_by, owner_id"

// Store reads items directly and opens transactional units of work for
// writes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin item transaction: %w", err)
	}
	return &tx{tx: sqlTx}, nil
}

func (s *Store) Get(ctx context.Context, entityID id.EntityID) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM items WHERE id = $1",
		entityID.String(),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", entityID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *Store) List(ctx context.Context) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM items WHERE state <> $1 ORDER BY created_at, id",
		int(lifecycle.StateTerminated),
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) ListByOwner(ctx context.Context, ownerID id.ActorID) ([]*models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+
			" FROM items WHERE state <> $1 AND (owner_id = $2 OR owner_id IS NULL) ORDER BY created_at, id",
		int(lifecycle.StateTerminated), ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list items by owner: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// tx buffers staged writes and flushes them in insertion order at Commit.
// The enforcement policy rewrites ops and suppression marks through the
// changeset.ChangeSet methods before the flush.
type tx struct {
	tx      *sql.Tx
	entries []changeset.Entry
	done    bool
}

func (t *tx) Stage(item *models.Item, op changeset.Op) {
	t.entries = append(t.entries, changeset.Entry{Entity: item, Op: op})
}

func (t *tx) Entries() []changeset.Entry {
	entries := make([]changeset.Entry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

func (t *tx) Retain(entity any) {
	for i := range t.entries {
		if t.entries[i].Entity == entity && t.entries[i].Op == changeset.OpDelete {
			t.entries[i].Op = changeset.OpUpdate
		}
	}
}

// SuppressField is satisfied structurally: the update statement never lists
// created_at or created_by, so a suppressed creation field cannot reach the
// row.
func (t *tx) SuppressField(any, string) {}

// Context binds the open transaction so collaborators, the audit outbox in
// particular, commit or roll back together with the staged items.
func (t *tx) Context(ctx context.Context) context.Context {
	return txcontext.WithTx(ctx, t.tx)
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true

	for _, entry := range t.entries {
		item, ok := entry.Entity.(*models.Item)
		if !ok {
			_ = t.tx.Rollback()
			return fmt.Errorf("staged entity is not an item: %w", sentinel.ErrInvalidState)
		}
		if err := t.apply(ctx, item, entry.Op); err != nil {
			_ = t.tx.Rollback()
			return err
		}
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit items: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback items: %w", err)
	}
	return nil
}

func (t *tx) apply(ctx context.Context, item *models.Item, op changeset.Op) error {
	switch op {
	case changeset.OpInsert:
		return t.insert(ctx, item)
	case changeset.OpUpdate:
		return t.update(ctx, item)
	case changeset.OpDelete:
		return t.delete(ctx, item)
	default:
		return fmt.Errorf("unknown op %q: %w", op, sentinel.ErrInvalidState)
	}
}

func (t *tx) insert(ctx context.Context, item *models.Item) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO items (id, name, notes, tags, state, created_at, updated_at, created_by, updated_by, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.EntityID().String(),
		item.Name,
		item.Notes,
		tagArray(item.Tags),
		int(item.State),
		item.CreatedAt,
		item.UpdatedAt,
		actorRef(item.CreatedBy),
		actorRef(item.UpdatedBy),
		actorRef(item.OwnerID),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("item %s: %w", item.EntityID(), sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (t *tx) update(ctx context.Context, item *models.Item) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE items
		SET name = $2, notes = $3, tags = $4, state = $5, updated_at = $6, updated_by = $7, owner_id = $8
		WHERE id = $1`,
		item.EntityID().String(),
		item.Name,
		item.Notes,
		tagArray(item.Tags),
		int(item.State),
		item.UpdatedAt,
		actorRef(item.UpdatedBy),
		actorRef(item.OwnerID),
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireRow(result, item.EntityID())
}

func (t *tx) delete(ctx context.Context, item *models.Item) error {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM items WHERE id = $1", item.EntityID().String())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireRow(result, item.EntityID())
}

func requireRow(result sql.Result, entityID id.EntityID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", entityID, sentinel.ErrNotFound)
	}
	return nil
}

func tagArray(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

func actorRef(ref *id.ActorID) *string {
	if ref == nil {
		return nil
	}
	s := ref.String()
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		rawID      string
		tags       pq.StringArray
		state      int
		item       models.Item
		createdBy  *string
		updatedBy  *string
		rawOwnerID *string
	)
	err := row.Scan(
		&rawID,
		&item.Name,
		&item.Notes,
		&tags,
		&state,
		&item.CreatedAt,
		&item.UpdatedAt,
		&createdBy,
		&updatedBy,
		&rawOwnerID,
	)
	if err != nil {
		return nil, err
	}

	entityID, err := id.ParseEntityID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}
	item.ID = entityID
	item.State = lifecycle.State(state)
	if !item.State.IsValid() {
		return nil, fmt.Errorf("item %s holds state %d: %w", entityID, state, sentinel.ErrInvalidState)
	}
	if len(tags) > 0 {
		item.Tags = []string(tags)
	}
	if item.CreatedBy, err = parseActorRef(createdBy); err != nil {
		return nil, fmt.Errorf("parse created_by: %w", err)
	}
	if item.UpdatedBy, err = parseActorRef(updatedBy); err != nil {
		return nil, fmt.Errorf("parse updated_by: %w", err)
	}
	if item.OwnerID, err = parseActorRef(rawOwnerID); err != nil {
		return nil, fmt.Errorf("parse owner_id: %w", err)
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*models.Item, error) {
	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func parseActorRef(raw *string) (*id.ActorID, error) {
	if raw == nil {
		return nil, nil
	}
	actorID, err := id.ParseActorID(*raw)
	if err != nil {
		return nil, err
	}
	return &actorID, nil
}
