package streamengine

import (
	"context"

	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamengine/annotate"
	"github.com/roomstream/engine/streamtypes"
)

// GetRoomEventsStreamForRoom implements spec §4.5.1: events for a single
// room in the half-open interval (from_token, to_token] in stream order.
// fromToken may be nil (no lower bound, "recent history" semantics).
func (e *Engine) GetRoomEventsStreamForRoom(
	ctx context.Context, roomID string, fromToken *roomtoken.Token, toToken roomtoken.Token, limit int, ascending bool,
) ([]*streamtypes.Event, roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "get_room_events_stream_for_room")
	defer span.Finish()

	to := toToken.StreamOnly()

	if fromToken != nil {
		from := fromToken.StreamOnly()
		if from.Equal(to) {
			return nil, from, nil
		}
		if !e.roomChangeCache.HasChanged(roomID, from.Stream) {
			return nil, from, nil
		}
	}

	useComposite := fromToken == nil
	bound := predicate.UpperBound(to)
	if fromToken != nil {
		from := fromToken.StreamOnly()
		bound = predicate.And(predicate.LowerBound(from), bound)
	}

	rows, err := e.db.SelectStreamEventsForRoom(ctx, roomID, bound, useComposite, ascending, e.clampLimit(limit))
	if err != nil {
		return nil, echoToken(fromToken, to), err
	}

	if len(rows) == 0 {
		echo := echoToken(fromToken, to)
		e.tokenEcho.WithLabelValues("get_room_events_stream_for_room", directionLabel(ascending)).Inc()
		return nil, echo, nil
	}

	if !ascending {
		reverseRows(rows)
	}

	events, err := e.materialize(ctx, rows)
	if err != nil {
		return nil, echoToken(fromToken, to), err
	}
	annotate.Annotate(events, rows, useComposite)

	minStream := rows[0].StreamOrdering
	for _, r := range rows {
		if r.StreamOrdering < minStream {
			minStream = r.StreamOrdering
		}
	}
	return events, roomtoken.NewStream(minStream), nil
}

func echoToken(fromToken *roomtoken.Token, to roomtoken.Token) roomtoken.Token {
	if fromToken != nil {
		return *fromToken
	}
	return to
}

func directionLabel(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

func reverseRows[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
