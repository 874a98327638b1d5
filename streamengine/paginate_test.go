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

func TestPaginateRoomEventsForwardAdvancesPastLastRow(t *testing.T) {
	e, mock, events := newTestEngine(t)
	events.Put(&streamtypes.Event{EventID: "$e1", RoomID: "!room:example.org"})

	from := roomtoken.NewTopological(1, 5)

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \?.*ORDER BY topological_ordering ASC, stream_ordering ASC.*LIMIT \?`).
		WithArgs("!room:example.org", int64(1), int64(1), int64(5), 50).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}).
			AddRow("$e1", "!room:example.org", "m.room.message", nil, 9, 1))

	got, next, err := e.PaginateRoomEvents(context.Background(), "!room:example.org", from, nil, true, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), next.Stream)
	assert.Equal(t, int64(1), next.Topological)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginateRoomEventsEmptyResultEchoesToTokenOverFromToken(t *testing.T) {
	e, mock, _ := newTestEngine(t)

	from := roomtoken.NewTopological(5, 50)
	to := roomtoken.NewTopological(1, 1)

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \?.*ORDER BY topological_ordering DESC, stream_ordering DESC`).
		WithArgs("!room:example.org", int64(5), int64(5), int64(50), int64(1), int64(1), int64(1), int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}))

	got, next, err := e.PaginateRoomEvents(context.Background(), "!room:example.org", from, &to, false, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, to, next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginateRoomEventsEmptyResultEchoesFromTokenWhenNoBound(t *testing.T) {
	e, mock, _ := newTestEngine(t)

	from := roomtoken.NewTopological(5, 50)

	mock.ExpectQuery(`SELECT .* FROM events WHERE room_id = \?.*ORDER BY topological_ordering DESC, stream_ordering DESC`).
		WithArgs("!room:example.org", int64(5), int64(5), int64(50), int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}))

	got, next, err := e.PaginateRoomEvents(context.Background(), "!room:example.org", from, nil, false, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, from, next)
	require.NoError(t, mock.ExpectationsWereMet())
}
