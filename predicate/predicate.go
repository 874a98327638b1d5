// Package predicate implements C2, OrderPredicate: it turns a parsed
// RoomStreamToken into a SQL bound expression over the
// (topological_ordering, stream_ordering) columns, honoring the dual
// ordering described in spec §4.2. The asymmetry between LowerBound
// (strict) and UpperBound (inclusive) is a deliberate contract, not an
// accident: tokens point between events, by convention referencing the
// event before the gap, and this asymmetry is what lets forward and
// backward pagination meet at the same cursor without duplicating or
// dropping events.
package predicate

import (
	"fmt"

	"github.com/roomstream/engine/roomtoken"
)

// Bound is a SQL condition fragment plus its positional arguments, meant to
// be spliced into a larger WHERE clause with "AND".
type Bound struct {
	SQL  string
	Args []any
}

// LowerBound returns rows strictly greater than t in the appropriate order:
// "immediately after" a token means the events up to and including t are
// excluded.
func LowerBound(t roomtoken.Token) Bound {
	if !t.HasTopological {
		return Bound{SQL: "stream_ordering > ?", Args: []any{t.Stream}}
	}
	return Bound{
		SQL: "(topological_ordering > ? OR (topological_ordering = ? AND stream_ordering > ?))",
		Args: []any{t.Topological, t.Topological, t.Stream},
	}
}

// UpperBound returns rows less than or equal to t in the appropriate order.
func UpperBound(t roomtoken.Token) Bound {
	if !t.HasTopological {
		return Bound{SQL: "stream_ordering <= ?", Args: []any{t.Stream}}
	}
	return Bound{
		SQL: "(topological_ordering < ? OR (topological_ordering = ? AND stream_ordering <= ?))",
		Args: []any{t.Topological, t.Topological, t.Stream},
	}
}

// And splices two bounds together with AND, concatenating their args in
// SQL-text order. Either side may be the zero Bound (empty SQL), in which
// case it is dropped.
func And(a, b Bound) Bound {
	switch {
	case a.SQL == "":
		return b
	case b.SQL == "":
		return a
	default:
		return Bound{
			SQL:  fmt.Sprintf("(%s AND %s)", a.SQL, b.SQL),
			Args: append(append([]any{}, a.Args...), b.Args...),
		}
	}
}
