package streamengine

import (
	"strconv"
	"strings"
	"sync"

	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamtypes"
)

// recentEventsMemo is the memoization cache spec §5 requires for
// get_recent_event_ids_for_room: keyed by all four call arguments, and safe
// against concurrent callers via an at-most-one-compute-per-key in-flight
// map. Unlike internal/changecache (which only ever answers "might have
// changed"), this cache holds the actual result so repeated reads at the
// same token don't re-query. §9's memoization-granularity note requires
// backfill to invalidate affected rooms; Invalidate does that by key prefix.
type recentEventsMemo struct {
	mu       sync.Mutex
	entries  map[string]recentEntry
	inflight map[string]*recentCall
}

type recentEntry struct {
	events []*streamtypes.Event
	start  roomtoken.Token
	end    roomtoken.Token
}

type recentCall struct {
	done   chan struct{}
	events []*streamtypes.Event
	start  roomtoken.Token
	end    roomtoken.Token
	err    error
}

func newRecentEventsMemo() *recentEventsMemo {
	return &recentEventsMemo{
		entries:  make(map[string]recentEntry),
		inflight: make(map[string]*recentCall),
	}
}

func recentMemoKey(roomID string, fromToken *roomtoken.Token, endToken roomtoken.Token, limit int) string {
	from := "-"
	if fromToken != nil {
		from = fromToken.String()
	}
	return roomID + "\x00" + from + "\x00" + endToken.String() + "\x00" + strconv.Itoa(limit)
}

// getOrCompute returns the cached result for key if present, collapses
// concurrent identical calls into a single invocation of fn otherwise, and
// caches a successful result for future callers. The result is the
// (start_token, end_token) pair spec §4.5.6 defines.
func (m *recentEventsMemo) getOrCompute(roomID string, key string, fn func() ([]*streamtypes.Event, roomtoken.Token, roomtoken.Token, error)) ([]*streamtypes.Event, roomtoken.Token, roomtoken.Token, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return e.events, e.start, e.end, nil
	}
	if c, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		<-c.done
		return c.events, c.start, c.end, c.err
	}
	c := &recentCall{done: make(chan struct{})}
	m.inflight[key] = c
	m.mu.Unlock()

	c.events, c.start, c.end, c.err = fn()

	m.mu.Lock()
	delete(m.inflight, key)
	if c.err == nil {
		m.entries[key] = recentEntry{events: c.events, start: c.start, end: c.end}
	}
	m.mu.Unlock()
	close(c.done)

	return c.events, c.start, c.end, c.err
}

// Invalidate drops every memoized entry for roomID. Called after backfill
// inserts events below a previously-cached from_token.stream, per §9.
func (m *recentEventsMemo) Invalidate(roomID string) {
	prefix := roomID + "\x00"
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}
