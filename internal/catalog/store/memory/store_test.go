package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/catalog/models"
	"custos/pkg/actor"
	"custos/pkg/changeset"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

func mustInsert(t *testing.T, store *Store, item *models.Item) {
	t.Helper()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpInsert)
	require.NoError(t, tx.Commit(context.Background()))
}

func TestCommitInsertThenGet(t *testing.T) {
	store := New()
	item, err := models.NewItem("gauge", "", nil)
	require.NoError(t, err)

	mustInsert(t, store, item)

	got, err := store.Get(context.Background(), item.EntityID())
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.EntityID(), got.EntityID())
}

func TestGetReturnsClone(t *testing.T) {
	store := New()
	item, err := models.NewItem("gauge", "", []string{"metal"})
	require.NoError(t, err)
	mustInsert(t, store, item)

	got, err := store.Get(context.Background(), item.EntityID())
	require.NoError(t, err)
	got.Name = "mutated"
	got.Tags[0] = "mutated"

	again, err := store.Get(context.Background(), item.EntityID())
	require.NoError(t, err)
	assert.Equal(t, "gauge", again.Name)
	assert.Equal(t, []string{"metal"}, again.Tags)
}

func TestGetMissing(t *testing.T) {
	store := New()
	_, err := store.Get(context.Background(), id.NewEntityID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListSkipsTerminatedAndKeepsOrder(t *testing.T) {
	store := New()
	first, err := models.NewItem("first", "", nil)
	require.NoError(t, err)
	second, err := models.NewItem("second", "", nil)
	require.NoError(t, err)
	third, err := models.NewItem("third", "", nil)
	require.NoError(t, err)

	mustInsert(t, store, first)
	mustInsert(t, store, second)
	mustInsert(t, store, third)

	second.SoftDelete(time.Now())
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(second, changeset.OpUpdate)
	require.NoError(t, tx.Commit(context.Background()))

	items, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Name)
	assert.Equal(t, "third", items[1].Name)
	assert.Equal(t, 3, store.Len())
}

func TestListByOwnerIncludesGlobal(t *testing.T) {
	store := New()
	owner := id.NewActorID()
	stranger := id.NewActorID()

	owned, err := models.NewItem("owned", "", nil)
	require.NoError(t, err)
	owned.AssignOwner(owner)
	global, err := models.NewItem("global", "", nil)
	require.NoError(t, err)
	foreign, err := models.NewItem("foreign", "", nil)
	require.NoError(t, err)
	foreign.AssignOwner(stranger)

	mustInsert(t, store, owned)
	mustInsert(t, store, global)
	mustInsert(t, store, foreign)

	items, err := store.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "owned", items[0].Name)
	assert.Equal(t, "global", items[1].Name)
}

func TestCommitDuplicateInsertLeavesStoreUntouched(t *testing.T) {
	store := New()
	item, err := models.NewItem("gauge", "", nil)
	require.NoError(t, err)
	mustInsert(t, store, item)

	fresh, err := models.NewItem("fresh", "", nil)
	require.NoError(t, err)
	duplicate := item.Clone()

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(fresh, changeset.OpInsert)
	tx.Stage(duplicate, changeset.OpInsert)
	err = tx.Commit(context.Background())
	require.ErrorIs(t, err, sentinel.ErrConflict)

	// The batch failed as a whole. The earlier staged insert must not leak.
	_, err = store.Get(context.Background(), fresh.EntityID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestCommitUpdateMissing(t *testing.T) {
	store := New()
	item, err := models.NewItem("phantom", "", nil)
	require.NoError(t, err)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpUpdate)
	require.ErrorIs(t, tx.Commit(context.Background()), sentinel.ErrNotFound)
}

func TestCommitInsertThenUpdateSameTx(t *testing.T) {
	store := New()
	item, err := models.NewItem("gauge", "", nil)
	require.NoError(t, err)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpInsert)
	item.Name = "renamed"
	tx.Stage(item, changeset.OpUpdate)
	require.NoError(t, tx.Commit(context.Background()))

	got, err := store.Get(context.Background(), item.EntityID())
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	store := New()
	item, err := models.NewItem("gauge", "", nil)
	require.NoError(t, err)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpInsert)
	require.NoError(t, tx.Rollback())
	require.ErrorIs(t, tx.Commit(context.Background()), sql.ErrTxDone)

	_, err = store.Get(context.Background(), item.EntityID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPolicyRedirectsDeleteToTermination(t *testing.T) {
	store := New()
	current := actor.Actor{ID: id.NewActorID(), Name: "keeper", Authenticated: true}
	now := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	policy := changeset.NewPolicy(actor.Fixed(current), changeset.WithClock(func() time.Time { return now }))

	item, err := models.NewItem("doomed", "", nil)
	require.NoError(t, err)
	mustInsert(t, store, item)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpDelete)
	policy.Apply(context.Background(), tx)
	require.NoError(t, tx.Commit(context.Background()))

	got, err := store.Get(context.Background(), item.EntityID())
	require.NoError(t, err)
	assert.True(t, got.IsTerminated())
	assert.True(t, got.UpdatedAt.Equal(now))
	require.NotNil(t, got.UpdatedBy)
	assert.Equal(t, current.ID, *got.UpdatedBy)
}

func TestPolicyShieldsCreationFieldsOnUpdate(t *testing.T) {
	store := New()
	creator := actor.Actor{ID: id.NewActorID(), Name: "creator", Authenticated: true}
	createdAt := time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC)
	policy := changeset.NewPolicy(actor.Fixed(creator), changeset.WithClock(func() time.Time { return createdAt }))

	item, err := models.NewItem("shielded", "", nil)
	require.NoError(t, err)
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpInsert)
	policy.Apply(context.Background(), tx)
	require.NoError(t, tx.Commit(context.Background()))

	editor := actor.Actor{ID: id.NewActorID(), Name: "editor", Authenticated: true}
	editedAt := createdAt.Add(48 * time.Hour)
	editPolicy := changeset.NewPolicy(actor.Fixed(editor), changeset.WithClock(func() time.Time { return editedAt }))

	// Tamper with the creation fields before staging the update.
	item.CreatedAt = editedAt.Add(time.Hour)
	item.CreatedBy = &editor.ID
	item.Notes = "edited"

	tx, err = store.Begin(context.Background())
	require.NoError(t, err)
	tx.Stage(item, changeset.OpUpdate)
	editPolicy.Apply(context.Background(), tx)
	require.NoError(t, tx.Commit(context.Background()))

	got, err := store.Get(context.Background(), item.EntityID())
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Notes)
	assert.True(t, got.CreatedAt.Equal(createdAt))
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, creator.ID, *got.CreatedBy)
	assert.True(t, got.UpdatedAt.Equal(editedAt))
	require.NotNil(t, got.UpdatedBy)
	assert.Equal(t, editor.ID, *got.UpdatedBy)
}
