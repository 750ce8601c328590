package testutil

import (
	"context"
	"net/http"
	"time"

	"custos/pkg/actor"
	id "custos/pkg/domain"
	"custos/pkg/requestcontext"
)

// WithActor stores a resolved actor on the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, a actor.Actor) *http.Request {
	return req.WithContext(actor.WithActor(req.Context(), a))
}

// WithActorID builds an authenticated actor from a raw ID string and stores
// it on the request. If the ID is not a valid UUID, the request is returned
// unchanged so tests can exercise the anonymous path with bad input.
func WithActorID(req *http.Request, actorID string) *http.Request {
	parsed, err := id.ParseActorID(actorID)
	if err != nil {
		return req
	}
	return WithActor(req, actor.Actor{ID: parsed, Authenticated: true})
}

// WithRoles builds an authenticated actor carrying the given roles.
func WithRoles(req *http.Request, actorID id.ActorID, roles ...string) *http.Request {
	return WithActor(req, actor.Actor{ID: actorID, Authenticated: true, Roles: roles})
}

// WithRequestTime pins the request-scoped clock, so handlers under test stamp
// deterministic timestamps.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
