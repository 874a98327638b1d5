// Package roomtoken implements C1, the RoomStreamToken codec from spec
// §4.1. A token is an opaque, ASCII, wire-format cursor in one of two
// shapes:
//
//	s{stream}          - a position in stream order alone
//	t{topological}-{stream} - a position in composite (topological, stream) order
//
// Parsing is total: every non-conforming string fails with *enginerr.InvalidToken,
// never a silent default, and to_string(parse(s)) == s for every valid s.
package roomtoken

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roomstream/engine/enginerr"
)

// Token is a parsed RoomStreamToken. HasTopological distinguishes the two
// variants from §4.1; Topological is meaningless when it is false.
type Token struct {
	HasTopological bool
	Topological    int64
	Stream         int64
}

// NewStream builds a stream-only token, "immediately after" stream.
func NewStream(stream int64) Token {
	return Token{Stream: stream}
}

// NewTopological builds a topological token at (topological, stream).
func NewTopological(topological, stream int64) Token {
	return Token{HasTopological: true, Topological: topological, Stream: stream}
}

// Parse accepts either wire shape. It fails with *enginerr.InvalidToken on
// any other input.
func Parse(text string) (Token, error) {
	if len(text) < 2 {
		return Token{}, &enginerr.InvalidToken{Text: text}
	}
	switch text[0] {
	case 's':
		stream, err := strconv.ParseInt(text[1:], 10, 64)
		if err != nil {
			return Token{}, &enginerr.InvalidToken{Text: text}
		}
		return NewStream(stream), nil
	case 't':
		rest := text[1:]
		dash := strings.IndexByte(rest, '-')
		if dash < 0 {
			return Token{}, &enginerr.InvalidToken{Text: text}
		}
		topo, err := strconv.ParseInt(rest[:dash], 10, 64)
		if err != nil {
			return Token{}, &enginerr.InvalidToken{Text: text}
		}
		stream, err := strconv.ParseInt(rest[dash+1:], 10, 64)
		if err != nil {
			return Token{}, &enginerr.InvalidToken{Text: text}
		}
		return NewTopological(topo, stream), nil
	default:
		return Token{}, &enginerr.InvalidToken{Text: text}
	}
}

// ParseStream parses either wire shape but always yields the stream
// component: a topological token "t{a}-{b}" collapses to its stream value
// b (with the topological component still recorded, for callers that want
// it), matching spec §4.1's parse_stream contract. Callers that need pure
// stream-only semantics should read .Stream and ignore .HasTopological.
func ParseStream(text string) (Token, error) {
	return Parse(text)
}

// String is the inverse of Parse: to_string(parse(s)) == s.
func (t Token) String() string {
	if t.HasTopological {
		return fmt.Sprintf("t%d-%d", t.Topological, t.Stream)
	}
	return fmt.Sprintf("s%d", t.Stream)
}

// StreamOnly strips any topological component, giving the token a caller
// that wants stream-only semantics would build directly with NewStream.
func (t Token) StreamOnly() Token {
	return NewStream(t.Stream)
}

// Equal supports the value's use as a map key contract without relying on
// Go's built-in struct equality leaking internal field additions later.
func (t Token) Equal(other Token) bool {
	return t.HasTopological == other.HasTopological &&
		t.Topological == other.Topological &&
		t.Stream == other.Stream
}
