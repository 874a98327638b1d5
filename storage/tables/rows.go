// Package tables holds the row shapes the storage layer reads out of the
// read-only schema named in spec §6 (events, state_events,
// room_memberships). It deliberately carries no behavior: the SQL lives in
// storage/shared, which is free to vary it per backend dialect.
package tables

// EventRow is one row of the events table, joined as needed with
// state_events or room_memberships by the caller.
type EventRow struct {
	EventID             string
	RoomID              string
	Type                string
	StateKey            *string
	StreamOrdering      int64
	TopologicalOrdering int64
}
