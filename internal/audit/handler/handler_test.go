package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/audit"
	"custos/internal/audit/store/memory"
	id "custos/pkg/domain"
	"custos/pkg/testutil"
)

func newTrailRouter(t *testing.T) (*memory.Store, chi.Router) {
	t.Helper()
	store := memory.New()
	h := New(store, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return store, r
}

func seedEvents(t *testing.T, store *memory.Store, entityID id.EntityID, actions ...audit.Action) {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range actions {
		err := store.Append(context.Background(), audit.Event{
			EntityKind: "item",
			EntityID:   entityID,
			Action:     action,
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
}

type listBody struct {
	Status string `json:"status"`
	Items  []struct {
		EntityID string `json:"entity_id"`
		Action   string `json:"action"`
	} `json:"items"`
	Total int `json:"total"`
}

func TestListRecent(t *testing.T) {
	store, router := newTrailRouter(t)
	seedEvents(t, store, id.NewEntityID(), audit.ActionCreated, audit.ActionActivated, audit.ActionPromoted)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/events?limit=2"))
	testutil.AssertStatusOK(t, rr)

	body := testutil.UnmarshalResponse[listBody](t, rr)
	require.Len(t, body.Items, 2)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "promoted", body.Items[0].Action)
	assert.Equal(t, "activated", body.Items[1].Action)
}

func TestListRecentDefaultsLimit(t *testing.T) {
	store, router := newTrailRouter(t)
	seedEvents(t, store, id.NewEntityID(), audit.ActionCreated)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/events"))
	testutil.AssertStatusOK(t, rr)

	body := testutil.UnmarshalResponse[listBody](t, rr)
	assert.Equal(t, 1, body.Total)
}

func TestListRecentRejectsBadLimit(t *testing.T) {
	_, router := newTrailRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/events?limit=banana"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_failed")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/events?limit=-3"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_failed")
}

func TestListByEntity(t *testing.T) {
	store, router := newTrailRouter(t)
	target := id.NewEntityID()
	seedEvents(t, store, target, audit.ActionCreated, audit.ActionSoftDeleted)
	seedEvents(t, store, id.NewEntityID(), audit.ActionCreated)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/entities/"+target.String()))
	testutil.AssertStatusOK(t, rr)

	body := testutil.UnmarshalResponse[listBody](t, rr)
	require.Len(t, body.Items, 2)
	for _, item := range body.Items {
		assert.Equal(t, target.String(), item.EntityID)
	}
}

func TestListByEntityRejectsBadID(t *testing.T) {
	_, router := newTrailRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/entities/not-a-uuid"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_failed")
}

func TestListByEntityEmptyTrail(t *testing.T) {
	_, router := newTrailRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/audit/entities/"+id.NewEntityID().String()))
	testutil.AssertStatusOK(t, rr)

	body := testutil.UnmarshalResponse[listBody](t, rr)
	assert.Equal(t, 0, body.Total)
	assert.Empty(t, body.Items)
}
