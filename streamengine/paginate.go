package streamengine

import (
	"context"

	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamengine/annotate"
	"github.com/roomstream/engine/streamtypes"
)

// PaginateRoomEvents implements spec §4.5.5: a page of events from roomID
// starting at fromToken and moving in the given direction, optionally
// stopping at toToken, composite-ordered and capped at limit. The returned
// token is positioned so that passing it back as the new fromToken in the
// same direction continues immediately after the last event this call
// returned, with no gap or duplicate.
func (e *Engine) PaginateRoomEvents(
	ctx context.Context, roomID string, fromToken roomtoken.Token, toToken *roomtoken.Token, ascending bool, limit int,
) ([]*streamtypes.Event, roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "paginate_room_events")
	defer span.Finish()

	var bound predicate.Bound
	if ascending {
		bound = predicate.LowerBound(fromToken)
		if toToken != nil {
			bound = predicate.And(bound, predicate.UpperBound(*toToken))
		}
	} else {
		bound = predicate.UpperBound(fromToken)
		if toToken != nil {
			bound = predicate.And(bound, predicate.LowerBound(*toToken))
		}
	}

	rows, err := e.db.SelectPaginationEvents(ctx, roomID, bound, ascending, e.clampLimit(limit))
	if err != nil {
		return nil, fromToken, err
	}
	if len(rows) == 0 {
		e.tokenEcho.WithLabelValues("paginate_room_events", directionLabel(ascending)).Inc()
		if toToken != nil {
			return nil, *toToken, nil
		}
		return nil, fromToken, nil
	}

	events, err := e.materialize(ctx, rows)
	if err != nil {
		return nil, fromToken, err
	}
	annotate.Annotate(events, rows, true)

	last := rows[len(rows)-1]
	var next roomtoken.Token
	if ascending {
		next = roomtoken.NewTopological(last.TopologicalOrdering, last.StreamOrdering)
	} else {
		next = roomtoken.NewTopological(last.TopologicalOrdering, last.StreamOrdering-1)
	}
	return events, next, nil
}
