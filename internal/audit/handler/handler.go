// Package handler exposes the audit trail to operators. Routes are expected
// to be mounted behind the admin-token middleware.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/internal/audit"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler serves trail queries.
type Handler struct {
	trail  audit.Trail
	logger *slog.Logger
}

func New(trail audit.Trail, logger *slog.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

// Register mounts the trail routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.handleListRecent)
	r.Get("/audit/entities/{entityID}", h.handleListByEntity)
}

// eventResponse is the wire form of one audit event.
type eventResponse struct {
	ID         string    `json:"id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Device     string    `json:"device,omitempty"`
}

func toResponse(events []audit.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:         e.ID.String(),
			EntityKind: e.EntityKind,
			EntityID:   e.EntityID.String(),
			Action:     string(e.Action),
			ActorID:    e.ActorID,
			OccurredAt: e.OccurredAt,
			RequestID:  e.RequestID,
			ClientIP:   e.ClientIP,
			Device:     e.Device,
		})
	}
	return out
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.NewFieldValidation("limit", "must be a positive integer"))
			return
		}
		limit = min(parsed, maxLimit)
	}

	events, err := h.trail.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list recent audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	httputil.WriteList(w, http.StatusOK, toResponse(events), len(events))
}

func (h *Handler) handleListByEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.trail.ListByEntity(ctx, entityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list entity audit trail",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", entityID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}

	httputil.WriteList(w, http.StatusOK, toResponse(events), len(events))
}
