//go:build integration

package roles_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custos/internal/actor/roles"
	id "custos/pkg/domain"
	"custos/pkg/testutil/containers"
)

// countingSource records how many times the backing source is consulted.
type countingSource struct {
	roles map[string][]string
	calls int
}

func (s *countingSource) RolesFor(_ context.Context, actorID id.ActorID) ([]string, error) {
	s.calls++
	return s.roles[actorID.String()], nil
}

type CachedSourceSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	source *countingSource
	cached *roles.Cached
}

func TestCachedSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedSourceSuite))
}

func (s *CachedSourceSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedSourceSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.source = &countingSource{roles: map[string][]string{}}
	s.cached = roles.NewCached(s.source, s.redis.Client, time.Minute, slog.Default())
}

func (s *CachedSourceSuite) TestSecondLookupServedFromCache() {
	ctx := context.Background()
	actorID := id.NewActorID()
	s.source.roles[actorID.String()] = []string{"admin"}

	first, err := s.cached.RolesFor(ctx, actorID)
	s.Require().NoError(err)
	s.Equal([]string{"admin"}, first)
	s.Equal(1, s.source.calls)

	second, err := s.cached.RolesFor(ctx, actorID)
	s.Require().NoError(err)
	s.Equal([]string{"admin"}, second)
	s.Equal(1, s.source.calls, "second lookup should not hit the source")
}

func (s *CachedSourceSuite) TestInvalidateForcesRefresh() {
	ctx := context.Background()
	actorID := id.NewActorID()
	s.source.roles[actorID.String()] = []string{"viewer"}

	_, err := s.cached.RolesFor(ctx, actorID)
	s.Require().NoError(err)

	// Grant a role and invalidate; next lookup must see it.
	s.source.roles[actorID.String()] = []string{"viewer", "editor"}
	s.Require().NoError(s.cached.Invalidate(ctx, actorID))

	got, err := s.cached.RolesFor(ctx, actorID)
	s.Require().NoError(err)
	s.Equal([]string{"viewer", "editor"}, got)
	s.Equal(2, s.source.calls)
}

func (s *CachedSourceSuite) TestEmptyRoleSetIsCached() {
	ctx := context.Background()
	actorID := id.NewActorID()

	first, err := s.cached.RolesFor(ctx, actorID)
	s.Require().NoError(err)
	s.Empty(first)

	_, err = s.cached.RolesFor(ctx, actorID)
	s.Require().NoError(err)
	s.Equal(1, s.source.calls, "empty result should be cached too")
}
