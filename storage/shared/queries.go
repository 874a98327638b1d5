package shared

import (
	"context"
	"database/sql"

	"github.com/roomstream/engine/enginerr"
	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/storage/tables"
)

// SelectMaxStreamOrdering returns the largest stream_ordering persisted,
// used to seed streamid.Generator and to answer 4.5.8's forward direction.
func (d *Database) SelectMaxStreamOrdering(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := d.DB.QueryRowContext(ctx, `SELECT MAX(stream_ordering) FROM events WHERE outlier = false`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

// SelectMaxTopologicalOrdering returns the largest topological_ordering in
// roomID among non-outlier events, used by 4.5.8's backward direction.
func (d *Database) SelectMaxTopologicalOrdering(ctx context.Context, roomID string) (int64, error) {
	var max sql.NullInt64
	err := d.DB.QueryRowContext(ctx,
		`SELECT MAX(topological_ordering) FROM events WHERE room_id = `+d.placeholder(1)+` AND outlier = false`,
		roomID).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

// SelectOrderingForEvent looks up one event's ordering columns, used by
// 4.5.7 (pin lookup) and 4.5.9 (token-for-event).
func (d *Database) SelectOrderingForEvent(ctx context.Context, eventID string) (topological, stream int64, found bool, err error) {
	err = d.DB.QueryRowContext(ctx,
		`SELECT topological_ordering, stream_ordering FROM events WHERE event_id = `+d.placeholder(1),
		eventID).Scan(&topological, &stream)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return topological, stream, true, nil
}

// SelectStreamEventsForRoom backs 4.5.1: rows for roomID satisfying bound,
// ordered by composite order when useComposite is true or by stream order
// alone otherwise, in the requested direction, capped at limit.
func (d *Database) SelectStreamEventsForRoom(
	ctx context.Context, roomID string, bound predicate.Bound, useComposite, ascending bool, limit int,
) ([]tables.EventRow, error) {
	where, args := d.render(bound, 1)
	query := `SELECT event_id, room_id, type, NULL, stream_ordering, topological_ordering
		FROM events WHERE room_id = ` + d.placeholder(1) + ` AND outlier = false AND ` + where +
		` ORDER BY ` + orderClause(useComposite, ascending) +
		` LIMIT ` + d.placeholder(len(args)+2)
	args = append([]any{roomID}, args...)
	args = append(args, limit)
	return d.queryEventRows(ctx, query, args...)
}

// SelectAppserviceEvents backs 4.5.3: rows in (from, to] stream order,
// LEFT JOINed with state_events for the state_key the appservice interest
// filter needs.
func (d *Database) SelectAppserviceEvents(ctx context.Context, bound predicate.Bound, limit int) ([]tables.EventRow, error) {
	where, args := d.render(bound, 0)
	query := `SELECT e.event_id, e.room_id, e.type, s.state_key, e.stream_ordering, e.topological_ordering
		FROM events e LEFT JOIN state_events s ON s.event_id = e.event_id
		WHERE e.outlier = false AND ` + where +
		` ORDER BY e.stream_ordering ASC LIMIT ` + d.placeholder(len(args)+1)
	args = append(args, limit)
	return d.queryEventRows(ctx, query, args...)
}

// SelectMembershipChanges backs 4.5.4: events joined with room_memberships
// for userID, bounded by stream range, ascending.
func (d *Database) SelectMembershipChanges(ctx context.Context, userID string, bound predicate.Bound) ([]tables.EventRow, error) {
	where, args := d.render(bound, 1)
	query := `SELECT e.event_id, e.room_id, e.type, NULL, e.stream_ordering, e.topological_ordering
		FROM events e JOIN room_memberships m ON m.event_id = e.event_id
		WHERE m.user_id = ` + d.placeholder(1) + ` AND e.outlier = false AND ` + where +
		` ORDER BY e.stream_ordering ASC`
	args = append([]any{userID}, args...)
	return d.queryEventRows(ctx, query, args...)
}

// SelectPaginationEvents backs 4.5.5: all columns for roomID bounded in
// composite order, direction-aware, limited when limit > 0.
func (d *Database) SelectPaginationEvents(ctx context.Context, roomID string, bound predicate.Bound, ascending bool, limit int) ([]tables.EventRow, error) {
	where, args := d.render(bound, 1)
	query := `SELECT event_id, room_id, type, NULL, stream_ordering, topological_ordering
		FROM events WHERE room_id = ` + d.placeholder(1) + ` AND outlier = false AND ` + where +
		` ORDER BY ` + orderClause(true, ascending)
	args = append([]any{roomID}, args...)
	if limit > 0 {
		query += ` LIMIT ` + d.placeholder(len(args)+1)
		args = append(args, limit)
	}
	return d.queryEventRows(ctx, query, args...)
}

// SelectRecentEvents backs 4.5.6: rows for roomID satisfying bound
// (end_token upper bound, optional from_token lower bound), descending
// composite order, capped at limit. Callers reverse the result.
func (d *Database) SelectRecentEvents(ctx context.Context, roomID string, bound predicate.Bound, limit int) ([]tables.EventRow, error) {
	where, args := d.render(bound, 1)
	query := `SELECT event_id, room_id, type, NULL, stream_ordering, topological_ordering
		FROM events WHERE room_id = ` + d.placeholder(1) + ` AND outlier = false AND ` + where +
		` ORDER BY topological_ordering DESC, stream_ordering DESC LIMIT ` + d.placeholder(len(args)+2)
	args = append([]any{roomID}, args...)
	args = append(args, limit)
	return d.queryEventRows(ctx, query, args...)
}

// SelectEventsBefore backs the "before" half of 4.5.7: events strictly
// before (pinTopo, pinStream) in composite order, descending, limited.
func (d *Database) SelectEventsBefore(ctx context.Context, roomID string, pinTopo, pinStream int64, limit int) ([]tables.EventRow, error) {
	query := `SELECT event_id, room_id, type, NULL, stream_ordering, topological_ordering
		FROM events WHERE room_id = ` + d.placeholder(1) + ` AND outlier = false
		AND (topological_ordering < ` + d.placeholder(2) +
		` OR (topological_ordering = ` + d.placeholder(3) + ` AND stream_ordering < ` + d.placeholder(4) + `))
		ORDER BY topological_ordering DESC, stream_ordering DESC LIMIT ` + d.placeholder(5)
	return d.queryEventRows(ctx, query, roomID, pinTopo, pinTopo, pinStream, limit)
}

// SelectEventsAfter backs the "after" half of 4.5.7: events strictly after
// (pinTopo, pinStream) in composite order, ascending, limited.
func (d *Database) SelectEventsAfter(ctx context.Context, roomID string, pinTopo, pinStream int64, limit int) ([]tables.EventRow, error) {
	query := `SELECT event_id, room_id, type, NULL, stream_ordering, topological_ordering
		FROM events WHERE room_id = ` + d.placeholder(1) + ` AND outlier = false
		AND (topological_ordering > ` + d.placeholder(2) +
		` OR (topological_ordering = ` + d.placeholder(3) + ` AND stream_ordering > ` + d.placeholder(4) + `))
		ORDER BY topological_ordering ASC, stream_ordering ASC LIMIT ` + d.placeholder(5)
	return d.queryEventRows(ctx, query, roomID, pinTopo, pinTopo, pinStream, limit)
}

func orderClause(useComposite, ascending bool) string {
	dir := "ASC"
	if !ascending {
		dir = "DESC"
	}
	if useComposite {
		return "topological_ordering " + dir + ", stream_ordering " + dir
	}
	return "stream_ordering " + dir
}

func (d *Database) queryEventRows(ctx context.Context, query string, args ...any) ([]tables.EventRow, error) {
	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &enginerr.DatabaseError{Op: "queryEventRows", Err: err}
	}
	defer rows.Close()

	var out []tables.EventRow
	for rows.Next() {
		r, err := scanEventRow(rows)
		if err != nil {
			return nil, &enginerr.DatabaseError{Op: "scanEventRow", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &enginerr.DatabaseError{Op: "queryEventRows", Err: err}
	}
	return out, nil
}
