package jwtauth

import (
	"log/slog"
	"net/http"
	"strings"

	"custos/internal/actor/roles"
	"custos/pkg/actor"
)

// Resolver turns Authorization: Bearer headers into actors. It satisfies the
// auth middleware's Resolver contract.
type Resolver struct {
	service *Service
	roles   roles.Source
	logger  *slog.Logger
}

// NewResolver builds a bearer-token resolver. A nil role source leaves the
// token's embedded roles untouched.
func NewResolver(service *Service, roleSource roles.Source, logger *slog.Logger) *Resolver {
	return &Resolver{service: service, roles: roleSource, logger: logger}
}

// Resolve validates the bearer token when present. Role-source failures are
// logged and degrade to the roles embedded in the token; a valid token never
// fails resolution because an enrichment lookup was down.
func (r *Resolver) Resolve(req *http.Request) (actor.Actor, bool, error) {
	authHeader := req.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return actor.Actor{}, false, nil
	}

	claims, err := r.service.Validate(token)
	if err != nil {
		return actor.Actor{}, true, err
	}

	current, err := ActorFromClaims(claims)
	if err != nil {
		return actor.Actor{}, true, err
	}

	if r.roles != nil {
		extra, err := r.roles.RolesFor(req.Context(), current.ID)
		if err != nil {
			r.logger.WarnContext(req.Context(), "role lookup failed, using token roles",
				"actor_id", current.ID,
				"error", err,
			)
		} else {
			current.Roles = roles.Merge(current.Roles, extra)
		}
	}

	return current, true, nil
}
