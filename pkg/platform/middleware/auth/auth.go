// Package auth resolves request credentials into an actor and stores it on
// the request context.
//
// Resolution is non-blocking: requests without credentials continue as
// anonymous, and individual routes opt into RequireActor. Credentials that
// are presented but invalid are always rejected, so a forged token can never
// downgrade silently to anonymous.
package auth

import (
	"log/slog"
	"net/http"

	"custos/pkg/actor"
	"custos/pkg/requestcontext"
)

// Resolver extracts and validates one credential scheme.
//
// The boolean reports whether the scheme's credentials were presented at
// all. A (zero, false, nil) return means "not mine, try the next resolver";
// an error means credentials were presented and failed validation.
type Resolver interface {
	Resolve(r *http.Request) (actor.Actor, bool, error)
}

// Authenticate tries each resolver in order and stores the first resolved
// actor on the context. Requests without credentials pass through untouched.
func Authenticate(logger *slog.Logger, resolvers ...Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, res := range resolvers {
				current, presented, err := res.Resolve(r)
				if err != nil {
					ctx := r.Context()
					logger.WarnContext(ctx, "credential validation failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired credentials")
					return
				}
				if presented {
					ctx := actor.WithActor(r.Context(), current)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireActor rejects requests that did not resolve to an authenticated
// actor. Use it on mutating routes; reads stay open to anonymous callers.
func RequireActor(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, ok := actor.FromContext(r.Context())
			if !ok || !current.Known() {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - no authenticated actor",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
