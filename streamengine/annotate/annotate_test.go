package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roomstream/engine/storage/tables"
	"github.com/roomstream/engine/streamtypes"
)

func TestAnnotateTopologicalCursors(t *testing.T) {
	events := []*streamtypes.Event{{EventID: "e1"}, {EventID: "e2"}}
	rows := []tables.EventRow{
		{EventID: "e1", TopologicalOrdering: 3, StreamOrdering: 10},
		{EventID: "e2", TopologicalOrdering: 4, StreamOrdering: 11},
	}

	Annotate(events, rows, true)

	assert.Equal(t, "t3-9", events[0].InternalMetadata.Before)
	assert.Equal(t, "t3-10", events[0].InternalMetadata.After)
	assert.Equal(t, streamtypes.OrderKey{Topological: 3, Stream: 10}, events[0].InternalMetadata.Order)
	assert.Equal(t, "t4-11", events[1].InternalMetadata.After)
}

func TestAnnotateStreamOnlyCursors(t *testing.T) {
	events := []*streamtypes.Event{{EventID: "e1"}}
	rows := []tables.EventRow{{EventID: "e1", TopologicalOrdering: 3, StreamOrdering: 10}}

	Annotate(events, rows, false)

	assert.Equal(t, "s9", events[0].InternalMetadata.Before)
	assert.Equal(t, "s10", events[0].InternalMetadata.After)
	assert.Equal(t, streamtypes.OrderKey{Stream: 10}, events[0].InternalMetadata.Order)
}
