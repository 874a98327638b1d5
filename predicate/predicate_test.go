package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roomstream/engine/roomtoken"
)

func TestLowerBoundStreamOnly(t *testing.T) {
	b := LowerBound(roomtoken.NewStream(5))
	assert.Equal(t, "stream_ordering > ?", b.SQL)
	assert.Equal(t, []any{int64(5)}, b.Args)
}

func TestUpperBoundTopological(t *testing.T) {
	b := UpperBound(roomtoken.NewTopological(3, 9))
	assert.Contains(t, b.SQL, "topological_ordering < ?")
	assert.Equal(t, []any{int64(3), int64(3), int64(9)}, b.Args)
}

func TestAndSplicesArgsInOrder(t *testing.T) {
	a := LowerBound(roomtoken.NewStream(1))
	b := UpperBound(roomtoken.NewStream(10))
	combined := And(a, b)
	assert.Equal(t, "(stream_ordering > ? AND stream_ordering <= ?)", combined.SQL)
	assert.Equal(t, []any{int64(1), int64(10)}, combined.Args)
}

func TestAndWithEmptyBoundPassesThroughOther(t *testing.T) {
	b := UpperBound(roomtoken.NewStream(10))
	assert.Equal(t, b, And(Bound{}, b))
	assert.Equal(t, b, And(b, Bound{}))
}
