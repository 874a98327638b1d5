// Package caching wraps github.com/dgraph-io/ristretto into the
// partitioned-cache shape the teacher uses (see internal/caching in the
// source dendrite tree: a `Caches` struct exposing one typed partition per
// concern, e.g. `RoomHierarchies`, `RoomHierarchyFailures`). The engine uses
// one partition per ChangeCache instance (rooms, memberships).
package caching

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
)

// Partition is a single named ristretto-backed cache of int64 values keyed
// by string. It is read-optimized and tolerates eviction: a caller must
// treat a miss as "unknown", never as "zero".
type Partition struct {
	name  string
	inner *ristretto.Cache
	ttl   time.Duration
}

// NewPartition allocates a ristretto cache sized for maxEntries counted
// items. ristretto's admission policy (TinyLFU) is what makes eviction
// "conservative" in the cost sense required by spec §4.4: it evicts the
// coldest entries, never silently drops a hot one.
func NewPartition(name string, maxEntries int64, ttl time.Duration) (*Partition, error) {
	inner, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate cache partition %q", name)
	}
	return &Partition{name: name, inner: inner, ttl: ttl}, nil
}

// Get returns the cached value and whether it was present.
func (p *Partition) Get(key string) (int64, bool) {
	v, ok := p.inner.Get(key)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// Set stores a value under key with cost 1, optionally expiring after the
// partition's configured TTL.
func (p *Partition) Set(key string, value int64) {
	if p.ttl > 0 {
		p.inner.SetWithTTL(key, value, 1, p.ttl)
	} else {
		p.inner.Set(key, value, 1)
	}
}

// Wait blocks until ristretto has finished processing buffered Set calls.
// Used wherever a caller needs a synchronous view after a write.
func (p *Partition) Wait() {
	p.inner.Wait()
}

// Name returns the partition's identifier, used in metric labels.
func (p *Partition) Name() string { return p.name }
