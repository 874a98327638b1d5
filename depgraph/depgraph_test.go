package depgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomstream/engine/enginerr"
)

type widget struct{ name string }

func TestResolveMemoizes(t *testing.T) {
	c := New()
	builds := 0
	c.Register("widget", func(*Container) (any, error) {
		builds++
		return &widget{name: "a"}, nil
	})

	w1, err := Resolve[*widget](c, "widget")
	require.NoError(t, err)
	w2, err := Resolve[*widget](c, "widget")
	require.NoError(t, err)

	assert.Same(t, w1, w2)
	assert.Equal(t, 1, builds)
}

func TestResolveUnregisteredFails(t *testing.T) {
	c := New()
	_, err := Resolve[*widget](c, "missing")
	assert.Error(t, err)
}

func TestResolveDetectsCycle(t *testing.T) {
	c := New()
	c.Register("a", func(c *Container) (any, error) {
		return Resolve[*widget](c, "b")
	})
	c.Register("b", func(c *Container) (any, error) {
		return Resolve[*widget](c, "a")
	})

	_, err := Resolve[*widget](c, "a")
	require.Error(t, err)
	var cyclic *enginerr.CyclicDependency
	assert.ErrorAs(t, err, &cyclic)
}

func TestFailedBuildCanBeRetried(t *testing.T) {
	c := New()
	attempt := 0
	c.Register("flaky", func(*Container) (any, error) {
		attempt++
		if attempt == 1 {
			return nil, errors.New("transient")
		}
		return &widget{name: "ok"}, nil
	})

	_, err := Resolve[*widget](c, "flaky")
	require.Error(t, err)

	w, err := Resolve[*widget](c, "flaky")
	require.NoError(t, err)
	assert.Equal(t, "ok", w.name)
}
