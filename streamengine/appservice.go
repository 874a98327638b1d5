package streamengine

import (
	"context"

	"github.com/roomstream/engine/appservice"
	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/storage/tables"
	"github.com/roomstream/engine/streamengine/annotate"
	"github.com/roomstream/engine/streamtypes"
)

// GetAppserviceRoomStream implements spec §4.5.3: events in (from, to] that
// fall within service's interest set (room namespace, or an m.room.member
// event targeting one of its users). The row filter runs after the DB read
// since interest is process-local state, not something the schema indexes.
func (e *Engine) GetAppserviceRoomStream(
	ctx context.Context, service *appservice.Service, fromToken, toToken roomtoken.Token, limit int,
) ([]*streamtypes.Event, roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "get_appservice_room_stream")
	defer span.Finish()

	bound := predicate.And(predicate.LowerBound(fromToken), predicate.UpperBound(toToken))

	rows, err := e.db.SelectAppserviceEvents(ctx, bound, e.clampLimit(limit))
	if err != nil {
		return nil, fromToken, err
	}
	if len(rows) == 0 {
		e.tokenEcho.WithLabelValues("get_appservice_room_stream", "ASC").Inc()
		return nil, toToken, nil
	}

	next := roomtoken.NewStream(rows[len(rows)-1].StreamOrdering)

	var interesting []tables.EventRow
	for _, r := range rows {
		if service.InterestedInEvent(r.RoomID, r.Type, r.StateKey) {
			interesting = append(interesting, r)
		}
	}
	if len(interesting) == 0 {
		return nil, next, nil
	}

	events, err := e.materialize(ctx, interesting)
	if err != nil {
		return nil, fromToken, err
	}
	annotate.Annotate(events, interesting, false)
	return events, next, nil
}
