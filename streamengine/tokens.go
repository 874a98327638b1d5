package streamengine

import (
	"context"

	"github.com/roomstream/engine/enginerr"
	"github.com/roomstream/engine/roomtoken"
)

// GetStreamTokenForEvent implements spec §4.5.9's stream-only variant.
func (e *Engine) GetStreamTokenForEvent(ctx context.Context, eventID string) (roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "get_stream_token_for_event")
	defer span.Finish()

	_, stream, found, err := e.db.SelectOrderingForEvent(ctx, eventID)
	if err != nil {
		return roomtoken.Token{}, err
	}
	if !found {
		return roomtoken.Token{}, &enginerr.EventNotFound{EventID: eventID}
	}
	return roomtoken.NewStream(stream), nil
}

// GetTopologicalTokenForEvent implements spec §4.5.9's composite variant.
func (e *Engine) GetTopologicalTokenForEvent(ctx context.Context, eventID string) (roomtoken.Token, error) {
	span, ctx := e.startSpan(ctx, "get_topological_token_for_event")
	defer span.Finish()

	topo, stream, found, err := e.db.SelectOrderingForEvent(ctx, eventID)
	if err != nil {
		return roomtoken.Token{}, err
	}
	if !found {
		return roomtoken.Token{}, &enginerr.EventNotFound{EventID: eventID}
	}
	return roomtoken.NewTopological(topo, stream), nil
}
