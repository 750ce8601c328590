package jwtauth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custos/pkg/actor"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/httputil"
	pstrings "custos/pkg/platform/strings"
	"custos/pkg/requestcontext"
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// Handler mints bearer tokens for operators. Mount it behind the admin-token
// middleware; deployments fronting an external issuer leave it unmounted.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the token routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tokens", h.handleMint)
}

type mintTokenRequest struct {
	ActorID   string   `json:"actor_id"`
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	ExpiresIn string   `json:"expires_in,omitempty"`
}

type mintTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[mintTokenRequest](w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID, err := id.ParseActorID(req.ActorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	expiresIn := defaultTokenTTL
	if req.ExpiresIn != "" {
		parsed, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || parsed <= 0 || parsed > maxTokenTTL {
			httputil.WriteError(w, dErrors.NewFieldValidation("expires_in", "must be a positive duration up to 24h"))
			return
		}
		expiresIn = parsed
	}

	subject := actor.Actor{
		ID:            actorID,
		Name:          req.Name,
		Email:         req.Email,
		Authenticated: true,
		Roles:         pstrings.DedupeAndTrim(req.Roles),
	}

	token, err := h.service.Issue(subject, expiresIn)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token mint failed",
			"actor_id", actorID,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token"))
		return
	}

	httputil.WriteData(w, http.StatusCreated, mintTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(expiresIn).UTC(),
	})
}
