// Package annotate implements C7, ResultAnnotator (spec §4.6): the sole
// mutation site for the before/after/order cursor annotations attached to
// returned events.
package annotate

import (
	"fmt"

	"github.com/roomstream/engine/storage/tables"
	"github.com/roomstream/engine/streamtypes"
)

// Annotate attaches before/after/order to each event's InternalMetadata.
// events and rows must have the same length and share index-for-index
// correspondence (the same raw source row each materialized event came
// from). topoOrder selects which cursor shape before/after use: topological
// when true, stream-only when false.
func Annotate(events []*streamtypes.Event, rows []tables.EventRow, topoOrder bool) {
	for i, e := range events {
		if i >= len(rows) {
			return
		}
		row := rows[i]
		e.Ordering = streamtypes.Ordering{
			StreamOrdering:      row.StreamOrdering,
			TopologicalOrdering: row.TopologicalOrdering,
		}
		e.InternalMetadata.Before = cursor(row, topoOrder, row.StreamOrdering-1)
		e.InternalMetadata.After = cursor(row, topoOrder, row.StreamOrdering)
		orderKey := streamtypes.OrderKey{Stream: row.StreamOrdering}
		if topoOrder {
			orderKey.Topological = row.TopologicalOrdering
		}
		e.InternalMetadata.Order = orderKey
	}
}

func cursor(row tables.EventRow, topoOrder bool, stream int64) string {
	if topoOrder {
		return fmt.Sprintf("t%d-%d", row.TopologicalOrdering, stream)
	}
	return fmt.Sprintf("s%d", stream)
}
