package postgres

// Schema creates the outbox and materialized audit tables. Deployments run
// it through their migration tooling; integration tests execute it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS outbox (
	id            UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id  TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	published_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_unpublished_idx
	ON outbox (created_at)
	WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	entity_kind TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	action      TEXT NOT NULL,
	actor_id    TEXT,
	occurred_at TIMESTAMPTZ NOT NULL,
	request_id  TEXT NOT NULL DEFAULT '',
	client_ip   TEXT NOT NULL DEFAULT '',
	device      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS audit_events_entity_idx
	ON audit_events (entity_id, occurred_at);
`
