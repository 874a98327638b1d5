// Package changecache implements C4, the "has entity changed since stream
// id S?" accelerator from spec §4.4. It is conservative on miss: an unknown
// entity is reported as possibly changed, never as unchanged. False
// positives cost a wasted DB read; false negatives would drop events, so
// they are forbidden by construction.
package changecache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roomstream/engine/internal/caching"
)

// Cache tracks, per entity key, the largest stream_ordering at which it is
// known to have changed.
type Cache struct {
	partition *caching.Partition
	hits      prometheus.Counter
	misses    prometheus.Counter
}

// New builds a ChangeCache instance backed by a fresh ristretto partition.
// name distinguishes the room cache from the membership cache in metrics
// (spec §5: "the two change caches (room, membership) are process-wide
// singletons").
func New(name string, maxEntries int64) (*Cache, error) {
	partition, err := caching.NewPartition(name, maxEntries, 0)
	if err != nil {
		return nil, err
	}
	return &Cache{
		partition: partition,
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "streamengine",
			Subsystem:   "changecache",
			Name:        "hits_total",
			Help:        "Entity lookups the change cache answered from its own state.",
			ConstLabels: prometheus.Labels{"cache": name},
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "streamengine",
			Subsystem:   "changecache",
			Name:        "misses_total",
			Help:        "Entity lookups that fell back to the conservative unknown default.",
			ConstLabels: prometheus.Labels{"cache": name},
		}),
	}, nil
}

// Advance records that key changed at streamOrdering. Called by the write
// path directly, or via internal/streamnotify when the write path runs in a
// different process. It returns once the write is visible to HasChanged.
func (c *Cache) Advance(key string, streamOrdering int64) {
	if existing, ok := c.partition.Get(key); ok && existing >= streamOrdering {
		return
	}
	c.partition.Set(key, streamOrdering)
	c.partition.Wait()
}

// HasChanged reports whether key is known to have changed after
// sinceStreamID, or whether the cache holds no information about key at
// all (the conservative default, spec §4.4).
func (c *Cache) HasChanged(key string, sinceStreamID int64) bool {
	last, ok := c.partition.Get(key)
	if !ok {
		c.misses.Inc()
		return true
	}
	c.hits.Inc()
	return last > sinceStreamID
}

// EntitiesChanged intersects keys with the set for which the cache reports
// change-or-unknown, per spec §4.4's get_entities_changed.
func (c *Cache) EntitiesChanged(keys []string, sinceStreamID int64) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if c.HasChanged(k, sinceStreamID) {
			out = append(out, k)
		}
	}
	return out
}

// Collectors exposes the cache's prometheus metrics for registration.
func (c *Cache) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.hits, c.misses}
}
