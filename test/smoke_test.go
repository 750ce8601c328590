// Package test assembles the server the way main does, in memory mode, and
// walks one full flow: mint a token, create an item, terminate it, and read
// the audit trail back through the admin surface. Component behavior is
// covered package by package; this guards the wiring between them.
package test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/actor/jwtauth"
	"custos/internal/audit"
	audithandler "custos/internal/audit/handler"
	auditmem "custos/internal/audit/store/memory"
	cataloghandler "custos/internal/catalog/handler"
	"custos/internal/catalog/service"
	catalogmem "custos/internal/catalog/store/memory"
	"custos/internal/platform/metrics"
	"custos/pkg/actor"
	"custos/pkg/changeset"
	id "custos/pkg/domain"
	"custos/pkg/platform/middleware/admin"
	"custos/pkg/platform/middleware/auth"
	"custos/pkg/platform/middleware/metadata"
	"custos/pkg/platform/middleware/request"
	"custos/pkg/platform/middleware/requesttime"
	"custos/pkg/testutil"
)

const adminToken = "smoke-admin-token"

func newServer(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())

	items := catalogmem.New()
	events := auditmem.New()

	policy := changeset.NewPolicy(actor.ContextProvider{},
		changeset.WithLogger(log),
		changeset.WithObserver(m),
	)
	recorder := audit.NewRecorder(events, m.AuditEvents)
	catalog := service.NewService(items, policy, recorder, m, log)
	jwtService := jwtauth.NewService("smoke-signing-key", "custos", "custos-api", 0)

	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(auth.Authenticate(log, jwtauth.NewResolver(jwtService, nil, log)))

	cataloghandler.New(catalog, log).Register(r)
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(admin.RequireAdminToken(adminToken, log))
		audithandler.New(events, log).Register(ar)
		jwtauth.NewHandler(jwtService, log).Register(ar)
	})
	return r
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func unmarshalData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope dataEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}

func TestEndToEndAuditedLifecycle(t *testing.T) {
	server := newServer(t)
	editorID := id.NewActorID()

	var bearer string
	testutil.Given(t, "a token minted through the admin surface", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/tokens", map[string]any{
			"actor_id": editorID.String(),
			"email":    "mira.osei@example.test",
			"roles":    []string{"editor"},
		})
		req.Header.Set("X-Admin-Token", adminToken)

		rr := testutil.DoRequest(server, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		minted := unmarshalData[struct {
			Token string `json:"token"`
		}](t, testutil.ReadBody(t, rr))
		require.NotEmpty(t, minted.Token)
		bearer = minted.Token
	})

	type itemBody struct {
		ID        string `json:"id"`
		State     string `json:"state"`
		Name      string `json:"name"`
		CreatedBy string `json:"created_by"`
		OwnerID   string `json:"owner_id"`
	}
	var itemID string

	testutil.When(t, "the editor creates an item over the authenticated API", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/items", map[string]any{
			"name": "hydraulic press",
			"tags": []string{"machines"},
		})
		req.Header.Set("Authorization", "Bearer "+bearer)
		req.Header.Set("User-Agent", "smoke-test-client")

		rr := testutil.DoRequest(server, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		created := unmarshalData[itemBody](t, testutil.ReadBody(t, rr))
		assert.Equal(t, "active", created.State)
		assert.Equal(t, editorID.String(), created.CreatedBy, "attribution comes from the bearer token")
		assert.Equal(t, editorID.String(), created.OwnerID)
		itemID = created.ID
	})

	testutil.And(t, "anonymous creation is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/items", map[string]any{"name": "ghost"})
		rr := testutil.DoRequest(server, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	testutil.When(t, "the editor deletes the item", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/items/"+itemID)
		req.Header.Set("Authorization", "Bearer "+bearer)

		rr := testutil.DoRequest(server, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		deleted := unmarshalData[itemBody](t, testutil.ReadBody(t, rr))
		assert.Equal(t, "terminated", deleted.State, "the delete is converted to a termination")
	})

	testutil.Then(t, "the item is hidden from listings but still addressable", func(t *testing.T) {
		rr := testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet, "/items"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		var list struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(testutil.ReadBody(t, rr), &list))
		assert.Zero(t, list.Total)

		rr = testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet, "/items/"+itemID))
		testutil.AssertStatus(t, rr, http.StatusOK)
		got := unmarshalData[itemBody](t, testutil.ReadBody(t, rr))
		assert.Equal(t, "terminated", got.State)
	})

	testutil.And(t, "the audit trail shows the attributed history in order", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/admin/audit/entities/"+itemID)
		req.Header.Set("X-Admin-Token", adminToken)

		rr := testutil.DoRequest(server, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var trail struct {
			Items []struct {
				Action     string    `json:"action"`
				ActorID    string    `json:"actor_id"`
				RequestID  string    `json:"request_id"`
				Device     string    `json:"device"`
				OccurredAt time.Time `json:"occurred_at"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(testutil.ReadBody(t, rr), &trail))
		require.Len(t, trail.Items, 2)

		assert.Equal(t, "created", trail.Items[0].Action)
		assert.Equal(t, "soft_deleted", trail.Items[1].Action)
		for _, event := range trail.Items {
			assert.Equal(t, editorID.String(), event.ActorID)
			assert.NotEmpty(t, event.RequestID, "request middleware stamps every event")
			assert.False(t, event.OccurredAt.IsZero())
		}
		assert.NotEmpty(t, trail.Items[0].Device, "client metadata rides along with the event")
	})
}
