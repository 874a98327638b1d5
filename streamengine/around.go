package streamengine

import (
	"context"

	"github.com/roomstream/engine/enginerr"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamengine/annotate"
	"github.com/roomstream/engine/streamtypes"
)

// GetEventsAround implements spec §4.5.7: the events immediately before and
// after a pinned eventID, returned as two distinct lists (the pinned event
// itself is never included in either), plus the start and end tokens
// bracketing the whole window.
func (e *Engine) GetEventsAround(
	ctx context.Context, roomID, eventID string, limitBefore, limitAfter int,
) (eventsBefore, eventsAfter []*streamtypes.Event, start, end roomtoken.Token, err error) {
	span, ctx := e.startSpan(ctx, "get_events_around")
	defer span.Finish()

	topo, stream, found, err := e.db.SelectOrderingForEvent(ctx, eventID)
	if err != nil {
		return nil, nil, roomtoken.Token{}, roomtoken.Token{}, err
	}
	if !found {
		return nil, nil, roomtoken.Token{}, roomtoken.Token{}, &enginerr.EventNotFound{EventID: eventID}
	}

	before, err := e.db.SelectEventsBefore(ctx, roomID, topo, stream, e.clampLimit(limitBefore))
	if err != nil {
		return nil, nil, roomtoken.Token{}, roomtoken.Token{}, err
	}
	reverseRows(before)

	after, err := e.db.SelectEventsAfter(ctx, roomID, topo, stream, e.clampLimit(limitAfter))
	if err != nil {
		return nil, nil, roomtoken.Token{}, roomtoken.Token{}, err
	}

	eventsBefore, err = e.materialize(ctx, before)
	if err != nil {
		return nil, nil, roomtoken.Token{}, roomtoken.Token{}, err
	}
	annotate.Annotate(eventsBefore, before, true)

	eventsAfter, err = e.materialize(ctx, after)
	if err != nil {
		return nil, nil, roomtoken.Token{}, roomtoken.Token{}, err
	}
	annotate.Annotate(eventsAfter, after, true)

	start = roomtoken.NewTopological(topo, stream-1)
	if len(before) > 0 {
		first := before[0]
		start = roomtoken.NewTopological(first.TopologicalOrdering, first.StreamOrdering-1)
	}
	end = roomtoken.NewTopological(topo, stream)
	if len(after) > 0 {
		last := after[len(after)-1]
		end = roomtoken.NewTopological(last.TopologicalOrdering, last.StreamOrdering)
	}
	return eventsBefore, eventsAfter, start, end, nil
}
