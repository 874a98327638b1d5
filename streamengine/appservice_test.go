package streamengine

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomstream/engine/appservice"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamtypes"
)

func TestGetAppserviceRoomStreamFiltersToInterestingRowsButAdvancesPastAll(t *testing.T) {
	e, mock, events := newTestEngine(t)
	events.Put(&streamtypes.Event{EventID: "$e2", RoomID: "!interesting:example.org"})

	service := appservice.New("as1", []string{`^!interesting:.*$`}, nil)

	from := roomtoken.NewStream(1)
	to := roomtoken.NewStream(20)

	mock.ExpectQuery(`SELECT .* FROM events e LEFT JOIN state_events.*WHERE e.outlier = false AND .*ORDER BY e.stream_ordering ASC LIMIT \?`).
		WithArgs(int64(1), int64(20), 20).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}).
			AddRow("$e1", "!boring:example.org", "m.room.message", nil, 5, 1).
			AddRow("$e2", "!interesting:example.org", "m.room.message", nil, 9, 1))

	got, next, err := e.GetAppserviceRoomStream(context.Background(), service, from, to, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "$e2", got[0].EventID)
	// next advances past the last row seen, including filtered-out rows.
	assert.Equal(t, int64(9), next.Stream)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppserviceRoomStreamEmptyResultEchoesToToken(t *testing.T) {
	e, mock, _ := newTestEngine(t)
	service := appservice.New("as1", []string{`^!interesting:.*$`}, nil)

	from := roomtoken.NewStream(1)
	to := roomtoken.NewStream(20)

	mock.ExpectQuery(`SELECT .* FROM events e LEFT JOIN state_events`).
		WithArgs(int64(1), int64(20), 20).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "room_id", "type", "state_key", "stream_ordering", "topological_ordering"}))

	got, next, err := e.GetAppserviceRoomStream(context.Background(), service, from, to, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, to, next)
	require.NoError(t, mock.ExpectationsWereMet())
}
