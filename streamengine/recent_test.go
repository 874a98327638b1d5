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

func TestGetRecentEventsForRoomReturnsStartEndPairInChronologicalOrder(t *testing.T) {
	e, mock, events := newTestEngine(t)
	events.Put(&streamtypes.Event{EventID: "$old", RoomID: "!room:example.org"})
	events.Put(&streamtypes.Event{EventID: "$new", RoomID: "!room:example.org"})

	end := roomtoken.NewStream(100)

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \?.*ORDER BY topological_ordering DESC, stream_ordering DESC LIMIT \?`).
		WithArgs("!room:example.org", int64(100), 50).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}).
			AddRow("$new", "!room:example.org", "m.room.message", nil, 20, 2).
			AddRow("$old", "!room:example.org", "m.room.message", nil, 10, 1))

	got, start, end2, err := e.GetRecentEventsForRoom(context.Background(), "!room:example.org", nil, end, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "$old", got[0].EventID)
	assert.Equal(t, "$new", got[1].EventID)
	assert.Equal(t, int64(9), start.Stream)
	assert.Equal(t, int64(1), start.Topological)
	assert.Equal(t, end, end2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentEventsForRoomEmptyResultReturnsEndTokenForBoth(t *testing.T) {
	e, mock, _ := newTestEngine(t)
	end := roomtoken.NewStream(100)

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \?.*ORDER BY topological_ordering DESC, stream_ordering DESC LIMIT \?`).
		WithArgs("!room:example.org", int64(100), 50).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}))

	got, start, end2, err := e.GetRecentEventsForRoom(context.Background(), "!room:example.org", nil, end, 50)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, end, start)
	assert.Equal(t, end, end2)
	require.NoError(t, mock.ExpectationsWereMet())
}
