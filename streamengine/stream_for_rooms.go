package streamengine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamtypes"
)

// RoomStreamResult is one room's share of a GetRoomEventsStreamForRooms
// fan-out: its events plus its own continuation token, since rooms can
// progress at different rates within the same call (spec §4.5.2).
type RoomStreamResult struct {
	Events []*streamtypes.Event
	Next   roomtoken.Token
}

// GetRoomEventsStreamForRooms implements spec §4.5.2: the per-room fan-out
// over GetRoomEventsStreamForRoom, bounded to e.fanoutConcurrency concurrent
// DB interactions (spec §6's stream.fanout_concurrency, default 20). Step 1
// prunes roomIDs against the room change cache's get_entities_changed so
// rooms the cache already knows are unchanged since fromToken never reach
// the database. Each surviving room keeps its own (events, next_token) pair
// in the result, matching stream.py's per-room token dict: a room that
// advanced further than its slowest sibling in this batch must not be
// rewound to the batch minimum on the caller's next call, or it would be
// handed events it already received. The first per-room error cancels the
// remaining work and is returned directly; partial results from rooms that
// already completed are discarded, matching spec §7's "no partial results
// on cancellation" guarantee.
func (e *Engine) GetRoomEventsStreamForRooms(
	ctx context.Context, roomIDs []string, fromToken *roomtoken.Token, toToken roomtoken.Token, limit int, ascending bool,
) (map[string]RoomStreamResult, error) {
	span, ctx := e.startSpan(ctx, "get_room_events_stream_for_rooms")
	defer span.Finish()

	results := make(map[string]RoomStreamResult, len(roomIDs))

	candidates := roomIDs
	if fromToken != nil {
		candidates = e.roomChangeCache.EntitiesChanged(roomIDs, fromToken.Stream)
		for _, roomID := range roomIDs {
			results[roomID] = RoomStreamResult{Next: *fromToken}
		}
	}

	sem := semaphore.NewWeighted(int64(e.fanoutConcurrency))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, roomID := range candidates {
		roomID := roomID
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			events, next, err := e.GetRoomEventsStreamForRoom(ctx, roomID, fromToken, toToken, limit, ascending)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results[roomID] = RoomStreamResult{Events: events, Next: next}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
