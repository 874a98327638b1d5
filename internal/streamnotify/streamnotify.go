// Package streamnotify implements C8, a supplemental component
// (SPEC_FULL.md's domain stack) bridging the write path's cache-invalidation
// obligation across process boundaries. A single writer process calls
// Advance locally; every reader process's Bus, including the writer's own,
// learns about it via a NATS subject and advances its own ChangeCache
// instances the same way spec §4.4 requires of a single process.
package streamnotify

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/roomstream/engine/internal/changecache"
)

// entityChange is the wire payload published on a bus's subject.
type entityChange struct {
	Cache          string `json:"cache"`
	Key            string `json:"key"`
	StreamOrdering int64  `json:"stream_ordering"`
}

// Bus connects a set of named ChangeCache instances to a NATS subject:
// Publish sends a local change out to every other subscriber; subscribing
// applies incoming changes to the matching local cache.
type Bus struct {
	nc      *nats.Conn
	subject string
	caches  map[string]*changecache.Cache
	sub     *nats.Subscription
	log     *logrus.Entry
}

// Connect dials url and prepares a Bus publishing/subscribing on
// subjectPrefix + ".entity_changed". caches maps the same names passed to
// changecache.New (e.g. "room", "membership") to the instances to keep in
// sync.
func Connect(url, subjectPrefix string, caches map[string]*changecache.Cache, log *logrus.Entry) (*Bus, error) {
	nc, err := nats.Connect(url, nats.Name("streamengine"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	b := &Bus{
		nc:      nc,
		subject: subjectPrefix + ".entity_changed",
		caches:  caches,
		log:     log,
	}
	sub, err := nc.Subscribe(b.subject, b.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", b.subject, err)
	}
	b.sub = sub
	return b, nil
}

// Publish announces that key in the named cache changed at streamOrdering.
// Callers invoke this from the write path in place of (or in addition to)
// calling Cache.Advance directly, so every process sharing this bus
// converges on the same view.
func (b *Bus) Publish(cacheName, key string, streamOrdering int64) error {
	payload, err := json.Marshal(entityChange{Cache: cacheName, Key: key, StreamOrdering: streamOrdering})
	if err != nil {
		return err
	}
	return b.nc.Publish(b.subject, payload)
}

func (b *Bus) handle(msg *nats.Msg) {
	var change entityChange
	if err := json.Unmarshal(msg.Data, &change); err != nil {
		b.log.WithError(err).Warn("streamnotify: discarding malformed entity_changed message")
		return
	}
	cache, ok := b.caches[change.Cache]
	if !ok {
		return
	}
	cache.Advance(change.Key, change.StreamOrdering)
}

// Close unsubscribes and drains the underlying NATS connection.
func (b *Bus) Close() error {
	if err := b.sub.Unsubscribe(); err != nil {
		return err
	}
	return b.nc.Drain()
}
