package apikey

import (
	"net/http"
	"strings"

	"custos/pkg/actor"
	dErrors "custos/pkg/domain-errors"
)

// Header carries the service-account credential.
const Header = "X-Api-Key"

// Resolver turns X-Api-Key headers into service actors. It satisfies the
// auth middleware's Resolver contract.
type Resolver struct {
	service *Service
}

func NewResolver(service *Service) *Resolver {
	return &Resolver{service: service}
}

// Resolve splits the presented key into account name and secret and verifies
// it. A missing header means the scheme was not presented.
func (r *Resolver) Resolve(req *http.Request) (actor.Actor, bool, error) {
	raw := req.Header.Get(Header)
	if raw == "" {
		return actor.Actor{}, false, nil
	}

	name, secret, found := strings.Cut(raw, ".")
	if !found || name == "" || secret == "" {
		return actor.Actor{}, true, dErrors.New(dErrors.CodeUnauthorized, "malformed API key")
	}

	current, err := r.service.Verify(name, secret)
	if err != nil {
		return actor.Actor{}, true, err
	}
	return current, true, nil
}
