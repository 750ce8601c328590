package postgres

// Schema creates the items table. Deployments run it through their migration
// tooling; integration tests execute it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	tags       TEXT[] NOT NULL DEFAULT '{}',
	state      SMALLINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	created_by UUID,
	updated_by UUID,
	owner_id   UUID
);

CREATE INDEX IF NOT EXISTS items_active_idx
	ON items (created_at, id)
	WHERE state <> 4;

CREATE INDEX IF NOT EXISTS items_owner_idx
	ON items (owner_id)
	WHERE owner_id IS NOT NULL;
`
