package streamengine

import (
	"context"

	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/roomtoken"
	"github.com/roomstream/engine/streamengine/annotate"
	"github.com/roomstream/engine/streamtypes"
)

// GetMembershipChangesForUser implements spec §4.5.4: every membership
// event affecting userID in (from, to], ascending stream order. The
// membership change cache gives a cheap "definitely nothing changed"
// short-circuit before touching the database.
func (e *Engine) GetMembershipChangesForUser(
	ctx context.Context, userID string, fromToken, toToken roomtoken.Token,
) ([]*streamtypes.Event, error) {
	span, ctx := e.startSpan(ctx, "get_membership_changes_for_user")
	defer span.Finish()

	if !e.membershipChangeCache.HasChanged(userID, fromToken.Stream) {
		return nil, nil
	}

	bound := predicate.And(predicate.LowerBound(fromToken), predicate.UpperBound(toToken))
	rows, err := e.db.SelectMembershipChanges(ctx, userID, bound)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	events, err := e.materialize(ctx, rows)
	if err != nil {
		return nil, err
	}
	annotate.Annotate(events, rows, false)
	return events, nil
}
