package streamengine

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamtypes"
)

func TestGetRoomEventsStreamForRoomsPrunesUnchangedRoomsViaChangeCache(t *testing.T) {
	e, mock, events := newTestEngine(t)
	events.Put(&streamtypes.Event{EventID: "$e1", RoomID: "!changed:example.org"})

	from := roomtoken.NewStream(10)
	to := roomtoken.NewStream(20)

	// Only !changed is reported as changed; !unchanged must never reach the DB.
	e.roomChangeCache.Advance("!changed:example.org", 15)
	e.roomChangeCache.Advance("!unchanged:example.org", 5)

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \? AND outlier = false AND .* ORDER BY stream_ordering ASC LIMIT \?`).
		WithArgs("!changed:example.org", int64(10), int64(20), 50).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}).
			AddRow("$e1", "!changed:example.org", "m.room.message", nil, 18, 1))

	got, err := e.GetRoomEventsStreamForRooms(context.Background(),
		[]string{"!changed:example.org", "!unchanged:example.org"}, &from, to, 50, true)
	require.NoError(t, err)

	require.Contains(t, got, "!changed:example.org")
	require.Len(t, got["!changed:example.org"].Events, 1)
	assert.Equal(t, int64(18), got["!changed:example.org"].Next.Stream)

	require.Contains(t, got, "!unchanged:example.org")
	assert.Empty(t, got["!unchanged:example.org"].Events)
	assert.Equal(t, from, got["!unchanged:example.org"].Next)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoomEventsStreamForRoomsGivesEachRoomItsOwnNextToken(t *testing.T) {
	e, mock, events := newTestEngine(t)
	events.Put(&streamtypes.Event{EventID: "$fast", RoomID: "!fast:example.org"})
	events.Put(&streamtypes.Event{EventID: "$slow", RoomID: "!slow:example.org"})

	from := roomtoken.NewStream(1)
	to := roomtoken.NewStream(20)
	e.roomChangeCache.Advance("!fast:example.org", 19)
	e.roomChangeCache.Advance("!slow:example.org", 5)

	// The two rooms are queried concurrently, so their order is not fixed.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \? AND outlier = false AND .* ORDER BY stream_ordering ASC LIMIT \?`).
		WithArgs("!fast:example.org", int64(1), int64(20), 50).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}).
			AddRow("$fast", "!fast:example.org", "m.room.message", nil, 19, 1))

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \? AND outlier = false AND .* ORDER BY stream_ordering ASC LIMIT \?`).
		WithArgs("!slow:example.org", int64(1), int64(20), 50).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}).
			AddRow("$slow", "!slow:example.org", "m.room.message", nil, 5, 1))

	got, err := e.GetRoomEventsStreamForRooms(context.Background(),
		[]string{"!fast:example.org", "!slow:example.org"}, &from, to, 50, true)
	require.NoError(t, err)

	// Each room keeps its own continuation token; neither is rewound to the
	// other's position.
	assert.Equal(t, int64(19), got["!fast:example.org"].Next.Stream)
	assert.Equal(t, int64(5), got["!slow:example.org"].Next.Stream)
	require.NoError(t, mock.ExpectationsWereMet())
}
