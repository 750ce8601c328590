// Package handler exposes the catalog item API. Errors arrive from the
// service already carrying their domain code; handlers decode, dispatch, and
// write envelopes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custos/internal/catalog/models"
	"custos/internal/catalog/service"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	"custos/pkg/requestcontext"
)

// Service is the catalog surface the handler dispatches to.
type Service interface {
	Create(ctx context.Context, input service.CreateItemInput) (*models.Item, error)
	Get(ctx context.Context, entityID id.EntityID) (*models.Item, error)
	List(ctx context.Context) ([]*models.Item, error)
	ListByOwner(ctx context.Context, ownerID id.ActorID) ([]*models.Item, error)
	Update(ctx context.Context, entityID id.EntityID, input service.UpdateItemInput) (*models.Item, error)
	Delete(ctx context.Context, entityID id.EntityID) (*models.Item, error)
	Restore(ctx context.Context, entityID id.EntityID) (*models.Item, error)
	Activate(ctx context.Context, entityID id.EntityID) (*models.Item, error)
	Deactivate(ctx context.Context, entityID id.EntityID) (*models.Item, error)
	Promote(ctx context.Context, entityID id.EntityID) (*models.Item, error)
	Demote(ctx context.Context, entityID id.EntityID) (*models.Item, error)
}

// Handler wires item endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the item routes. Authentication is resolved by middleware
// upstream; the service decides which operations demand a known actor.
func (h *Handler) Register(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{itemID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Patch("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/restore", h.handleRestore)
			r.Post("/activate", h.handleActivate)
			r.Post("/deactivate", h.handleDeactivate)
			r.Post("/promote", h.handlePromote)
			r.Post("/demote", h.handleDemote)
		})
	})
}

type createItemRequest struct {
	Name   string   `json:"name"`
	Notes  string   `json:"notes"`
	Tags   []string `json:"tags"`
	Global bool     `json:"global"`
}

type updateItemRequest struct {
	Name  *string   `json:"name"`
	Notes *string   `json:"notes"`
	Tags  *[]string `json:"tags"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[createItemRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), service.CreateItemInput{
		Name:   req.Name,
		Notes:  req.Notes,
		Tags:   req.Tags,
		Global: req.Global,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, item)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		items []*models.Item
		err   error
	)
	if raw := r.URL.Query().Get("owner"); raw != "" {
		ownerID, parseErr := id.ParseActorID(raw)
		if parseErr != nil {
			h.writeError(w, r, parseErr)
			return
		}
		items, err = h.service.ListByOwner(ctx, ownerID)
	} else {
		items, err = h.service.List(ctx)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteList(w, http.StatusOK, items, len(items))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	entityID, err := itemID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := httputil.DecodeJSON[updateItemRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := h.service.Update(r.Context(), entityID, service.UpdateItemInput{
		Name:  req.Name,
		Notes: req.Notes,
		Tags:  req.Tags,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Get)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Delete)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Restore)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Activate)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Deactivate)
}

func (h *Handler) handlePromote(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Promote)
}

func (h *Handler) handleDemote(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Demote)
}

// respond runs one id-addressed operation and writes the resulting item.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, entityID id.EntityID) (*models.Item, error)) {
	entityID, err := itemID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := op(r.Context(), entityID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}

// writeError renders err and logs it when it is an internal failure; the
// envelope redacts those, so the log line is the only place the cause lands.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(r.Context(), "catalog operation failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func itemID(r *http.Request) (id.EntityID, error) {
	return id.ParseEntityID(chi.URLParam(r, "itemID"))
}
