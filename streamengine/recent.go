package streamengine

import (
	"context"

	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamengine/annotate"
	"github.com/roomstream/engine/streamtypes"
)

// GetRecentEventsForRoom implements spec §4.5.6: the most recent limit
// events in roomID at or before endToken, optionally bounded below by
// fromToken, returned in ascending chronological order together with the
// (start_token, end_token) pair: start_token is the backward-pagination
// continuation positioned just before the oldest returned event, and
// end_token simply echoes endToken. On an empty result both tokens equal
// endToken. Results are memoized per §5; a concurrent identical call
// collapses into the same DB round trip.
func (e *Engine) GetRecentEventsForRoom(
	ctx context.Context, roomID string, fromToken *roomtoken.Token, endToken roomtoken.Token, limit int,
) ([]*streamtypes.Event, roomtoken.Token, roomtoken.Token, error) {
	key := recentMemoKey(roomID, fromToken, endToken, limit)
	return e.recentMemo.getOrCompute(roomID, key, func() ([]*streamtypes.Event, roomtoken.Token, roomtoken.Token, error) {
		return e.getRecentEventsForRoomUncached(ctx, roomID, fromToken, endToken, limit)
	})
}

func (e *Engine) getRecentEventsForRoomUncached(
	ctx context.Context, roomID string, fromToken *roomtoken.Token, endToken roomtoken.Token, limit int,
) ([]*streamtypes.Event, roomtoken.Token, roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "get_recent_events_for_room")
	defer span.Finish()

	bound := predicate.UpperBound(endToken)
	if fromToken != nil {
		bound = predicate.And(predicate.LowerBound(*fromToken), bound)
	}

	rows, err := e.db.SelectRecentEvents(ctx, roomID, bound, e.clampLimit(limit))
	if err != nil {
		return nil, endToken, endToken, err
	}
	if len(rows) == 0 {
		e.tokenEcho.WithLabelValues("get_recent_events_for_room", "DESC").Inc()
		return nil, endToken, endToken, nil
	}

	// rows arrive newest-first (descending composite order); the returned
	// slice is chronological, so reverse before annotating.
	reverseRows(rows)

	events, err := e.materialize(ctx, rows)
	if err != nil {
		return nil, endToken, endToken, err
	}
	annotate.Annotate(events, rows, true)

	oldest := rows[0]
	start := roomtoken.NewTopological(oldest.TopologicalOrdering, oldest.StreamOrdering-1)
	return events, start, endToken, nil
}

// InvalidateRecentCache drops memoized get_recent_events_for_room results
// for roomID. Callers on the write/backfill path must invoke this whenever
// they insert events below a stream position a caller may already have
// cached a result for (spec §9, memoization granularity).
func (e *Engine) InvalidateRecentCache(roomID string) {
	e.recentMemo.Invalidate(roomID)
}
