package roles

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "custos/pkg/domain"
)

// Redis key prefix for cached role sets.
const roleKeyPrefix = "roles:actor:"

// Cached wraps a Source with a Redis cache so hot actors do not hit the
// backing source on every request. Cache failures degrade to the inner
// source; they never fail resolution.
type Cached struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Source, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cached) RolesFor(ctx context.Context, actorID id.ActorID) ([]string, error) {
	key := roleKeyPrefix + actorID.String()

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var cached []string
		if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
			return cached, nil
		}
		// Corrupt entry; fall through and overwrite it below.
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "role cache read failed",
			"actor_id", actorID,
			"error", err,
		)
	}

	resolved, err := c.inner.RolesFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(resolved)
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "role cache write failed",
				"actor_id", actorID,
				"error", setErr,
			)
		}
	}
	return resolved, nil
}

// Invalidate drops an actor's cached roles. Call after a role grant or
// revocation so the change takes effect before the TTL expires.
func (c *Cached) Invalidate(ctx context.Context, actorID id.ActorID) error {
	return c.client.Del(ctx, roleKeyPrefix+actorID.String()).Err()
}
