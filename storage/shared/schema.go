package shared

// schemaSQL creates the read-only tables the engine consumes, named
// verbatim in spec §6. The write path (out of scope) is assumed to be the
// one actually populating them in production. New applies it once via the
// shared migrator; the sqlmock-based tests build Database directly and never
// apply it.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	event_id TEXT PRIMARY KEY,
	room_id TEXT NOT NULL,
	type TEXT NOT NULL,
	stream_ordering BIGINT NOT NULL,
	topological_ordering BIGINT NOT NULL,
	outlier BOOLEAN NOT NULL DEFAULT FALSE,
	depth BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS events_room_stream_idx ON events(room_id, stream_ordering);
CREATE INDEX IF NOT EXISTS events_room_topo_idx ON events(room_id, topological_ordering, stream_ordering);
CREATE INDEX IF NOT EXISTS events_stream_idx ON events(stream_ordering);

CREATE TABLE IF NOT EXISTS state_events (
	event_id TEXT NOT NULL,
	state_key TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS state_events_event_idx ON state_events(event_id);

CREATE TABLE IF NOT EXISTS room_memberships (
	event_id TEXT NOT NULL,
	user_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS room_memberships_user_idx ON room_memberships(user_id);
CREATE INDEX IF NOT EXISTS room_memberships_event_idx ON room_memberships(event_id);
`
