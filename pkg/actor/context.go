package actor

import "context"

type ctxKey struct{}

// ContextKey is exported for tests that need raw context.WithValue.
var ContextKey = ctxKey{}

// WithActor stores the resolved actor on the context. Middleware calls this
// after validating credentials.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ContextKey, a)
}

// FromContext reads the actor stored by middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ContextKey).(Actor)
	return a, ok
}

// ContextProvider resolves the actor from the request context. An absent
// actor resolves to Anonymous without error: unauthenticated traffic is a
// normal condition, not a lookup failure.
type ContextProvider struct{}

func (ContextProvider) Current(ctx context.Context) (Actor, error) {
	if a, ok := FromContext(ctx); ok {
		return a, nil
	}
	return Anonymous(), nil
}
