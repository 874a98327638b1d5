// Package eventstore defines the EventStore collaborator boundary from spec
// §1: "The event body store ... is delegated to an EventStore collaborator
// with a single operation fetch(event_ids, include_prev_content) -> [Event]".
// This package only defines the interface and a thin in-memory test double;
// a real implementation (event JSON, signatures, redaction) lives entirely
// outside this engine's scope.
package eventstore

import (
	"context"

	"github.com/roomstream/engine/streamtypes"
)

// Store materializes full events from bare event IDs.
type Store interface {
	Fetch(ctx context.Context, eventIDs []string, includePrevContent bool) ([]*streamtypes.Event, error)
}

// Ordered re-sorts the events Fetch returned into the same order as
// eventIDs, since a real EventStore is free to return them in any order
// (e.g. a batched key-value lookup). Several engine operations depend on
// result order matching query order.
func Ordered(eventIDs []string, events []*streamtypes.Event) []*streamtypes.Event {
	byID := make(map[string]*streamtypes.Event, len(events))
	for _, e := range events {
		byID[e.EventID] = e
	}
	out := make([]*streamtypes.Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
