//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"custos/internal/audit"
	auditpg "custos/internal/audit/store/postgres"
	id "custos/pkg/domain"
	"custos/pkg/testutil/containers"
)

type ReaderSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	pool   *pgxpool.Pool
	store  *auditpg.Store
	reader *auditpg.Reader
}

func TestReaderSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ReaderSuite))
}

func (s *ReaderSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.MustExec(s.T(), auditpg.Schema)
	s.store = auditpg.New(s.pg.DB)

	pool, err := pgxpool.New(context.Background(), s.pg.DSN)
	s.Require().NoError(err)
	s.T().Cleanup(pool.Close)
	s.pool = pool
	s.reader = auditpg.NewReader(pool)
}

func (s *ReaderSuite) SetupTest() {
	s.pg.MustExec(s.T(), "TRUNCATE audit_events")
}

func (s *ReaderSuite) materialize(entityID id.EntityID, action audit.Action, at time.Time) audit.Event {
	event := audit.Event{
		ID:         uuid.New(),
		EntityKind: "item",
		EntityID:   entityID,
		Action:     action,
		ActorID:    uuid.NewString(),
		OccurredAt: at,
		RequestID:  "req-1",
	}
	s.Require().NoError(s.store.AppendWithID(context.Background(), event.ID, event))
	return event
}

func (s *ReaderSuite) TestListByEntityOldestFirst() {
	ctx := context.Background()
	entityID := id.NewEntityID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	s.materialize(entityID, audit.ActionCreated, base)
	s.materialize(entityID, audit.ActionActivated, base.Add(time.Second))
	s.materialize(id.NewEntityID(), audit.ActionCreated, base.Add(2*time.Second))

	events, err := s.reader.ListByEntity(ctx, entityID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionCreated, events[0].Action)
	s.Equal(audit.ActionActivated, events[1].Action)
	s.Equal(entityID, events[0].EntityID)
	s.NotEmpty(events[0].ActorID)
}

func (s *ReaderSuite) TestListRecentNewestFirstWithLimit() {
	ctx := context.Background()
	entityID := id.NewEntityID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	s.materialize(entityID, audit.ActionCreated, base)
	s.materialize(entityID, audit.ActionPromoted, base.Add(time.Second))
	s.materialize(entityID, audit.ActionDemoted, base.Add(2*time.Second))

	events, err := s.reader.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionDemoted, events[0].Action)
	s.Equal(audit.ActionPromoted, events[1].Action)
}

func (s *ReaderSuite) TestListRecentEmptyTable() {
	events, err := s.reader.ListRecent(context.Background(), 10)
	s.Require().NoError(err)
	s.Empty(events)
}
