package streamengine

import (
	"context"

	"github.com/roomstream/engine/roomtoken"
)

// GetRoomEventsMaxID implements spec §4.5.8: the highest token currently
// reachable in the given direction. Forward is a global stream position
// (the generator's contiguous frontier doubles as a sanity check against
// the persisted max); backward is room-scoped topological depth.
func (e *Engine) GetRoomEventsMaxID(ctx context.Context, roomID string, ascending bool) (roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "get_room_events_max_id")
	defer span.Finish()

	if ascending {
		max, err := e.db.SelectMaxStreamOrdering(ctx)
		if err != nil {
			return roomtoken.Token{}, err
		}
		if current := e.streamIDs.CurrentToken(); current > max {
			max = current
		}
		return roomtoken.NewStream(max), nil
	}

	topo, err := e.db.SelectMaxTopologicalOrdering(ctx, roomID)
	if err != nil {
		return roomtoken.Token{}, err
	}
	return roomtoken.NewTopological(topo, e.streamIDs.CurrentToken()), nil
}
