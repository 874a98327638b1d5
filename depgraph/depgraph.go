// Package depgraph implements the lightweight dependency container from
// spec §5 ("Dependency injection") and §9 ("Dynamic dependency container"):
// a builder that lazily constructs each collaborator on demand, detects
// cycles, and memoizes the result. The source's reflective "any component
// can reach any other via hs, built on first get_X" pattern becomes typed
// references here: each Resolve call site names its own concrete
// type via a generic type parameter instead of a reflective lookup.
package depgraph

import (
	"fmt"
	"sync"

	"github.com/roomstream/engine/enginerr"
)

type state int

const (
	stateUnbuilt state = iota
	stateBuilding
	stateBuilt
)

type entry struct {
	state state
	build func(*Container) (any, error)
	value any
}

// Container lazily builds named collaborators, detecting cycles: when
// resolving dependency d, d is marked in-flight; if another resolution
// reaches d while marked, construction fails with *enginerr.CyclicDependency.
// On success the built instance is memoized so later Resolve calls for the
// same name are free.
type Container struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty container.
func New() *Container {
	return &Container{entries: make(map[string]*entry)}
}

// Register names a collaborator and the function that builds it. build may
// itself call Resolve on the same container to pull in its own
// dependencies; Container detects the resulting cycle rather than
// recursing forever.
func (c *Container) Register(name string, build func(*Container) (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{build: build}
}

// resolveAny runs the named entry's build function exactly once, memoizing
// the result, or fails fast on a cycle.
func (c *Container) resolveAny(name string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("depgraph: no builder registered for %q", name)
	}
	switch e.state {
	case stateBuilt:
		c.mu.Unlock()
		return e.value, nil
	case stateBuilding:
		c.mu.Unlock()
		return nil, &enginerr.CyclicDependency{Name: name}
	}
	e.state = stateBuilding
	c.mu.Unlock()

	v, err := e.build(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Leave the entry unbuilt so a later, non-cyclic retry can succeed
		// (a transient build failure is not a structural cycle).
		e.state = stateUnbuilt
		return nil, err
	}
	e.value = v
	e.state = stateBuilt
	return v, nil
}

// Resolve builds (or returns the memoized) instance named name, type-asserted
// to T. A typed reference at the call site replaces the source's reflective
// "get_X" lookup.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.resolveAny(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("depgraph: %q built as %T, not %T", name, v, zero)
	}
	return t, nil
}
