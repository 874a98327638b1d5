// Package streamengine implements C6, StreamEngine: the query planner and
// executor for the five read operations of spec §4.5 (expanded to the nine
// entry points enumerated across 4.5.1-4.5.9), composing C1 (roomtoken),
// C2 (predicate), C3 (streamid), C4 (internal/changecache), C5
// (eventstore), and C7 (streamengine/annotate).
package streamengine

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roomstream/engine/eventstore"
	"github.com/roomstream/engine/internal/changecache"
	"github.com/roomstream/engine/storage/shared"
	"github.com/roomstream/engine/storage/tables"
	"github.com/roomstream/engine/streamid"
	"github.com/roomstream/engine/streamtypes"
)

// Engine is the composition root for the nine read operations. Its fields
// are exactly the collaborators named in spec §1/§5 ("Dependency
// injection"): provided at construction, never mutated afterward.
type Engine struct {
	db                    *shared.Database
	roomChangeCache       *changecache.Cache
	membershipChangeCache *changecache.Cache
	streamIDs             *streamid.Generator
	events                eventstore.Store

	fanoutConcurrency int
	maxBatchSize      int

	tracer opentracing.Tracer

	tokenEcho    *prometheus.CounterVec
	recentMemo   *recentEventsMemo
}

// Config is the subset of construction-time parameters the engine reads
// directly from spec §6 (stream.max_batch_size, stream.fanout_concurrency).
type Config struct {
	MaxBatchSize      int
	FanoutConcurrency int
}

// New builds an Engine from its collaborators. db, roomChangeCache,
// membershipChangeCache, streamIDs, and events are all required; a nil
// value surfaces as a nil-pointer panic on first use, matching the
// teacher's convention of failing loudly at the first real call rather than
// guarding every method against a half-built Engine.
func New(cfg Config, db *shared.Database, roomChangeCache, membershipChangeCache *changecache.Cache, streamIDs *streamid.Generator, events eventstore.Store) *Engine {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1000
	}
	if cfg.FanoutConcurrency <= 0 {
		cfg.FanoutConcurrency = 20
	}
	e := &Engine{
		db:                    db,
		roomChangeCache:       roomChangeCache,
		membershipChangeCache: membershipChangeCache,
		streamIDs:             streamIDs,
		events:                events,
		fanoutConcurrency:     cfg.FanoutConcurrency,
		maxBatchSize:          cfg.MaxBatchSize,
		tracer:                opentracing.GlobalTracer(),
		tokenEcho: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamengine",
			Subsystem: "stream",
			Name:      "token_echo_total",
			Help:      "Reads that echoed their input token back because the result set was empty (spec §9 open question).",
		}, []string{"operation", "direction"}),
	}
	e.recentMemo = newRecentEventsMemo()
	return e
}

// startSpan opens a span named op under e.tracer, the teacher's convention
// for marking DB-interaction boundaries (see syncapi/routing's use of
// opentracing around storage calls). Callers must Finish() the span.
func (e *Engine) startSpan(ctx context.Context, op string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContextWithTracer(ctx, e.tracer, op)
}

// clampLimit enforces spec §6's stream.max_batch_size ceiling on every
// caller-supplied limit, so a misbehaving caller can't force an unbounded
// scan regardless of what it asks for.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 || limit > e.maxBatchSize {
		return e.maxBatchSize
	}
	return limit
}

// Collectors exposes the engine's own prometheus metrics for registration,
// in addition to those the change caches expose directly.
func (e *Engine) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.tokenEcho}
}

// materialize fetches full events for rows via the EventStore collaborator
// and re-orders the result to match rows, so callers can zip events[i]
// against rows[i] (annotate.Annotate depends on this correspondence).
func (e *Engine) materialize(ctx context.Context, rows []tables.EventRow) ([]*streamtypes.Event, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.EventID
	}
	fetched, err := e.events.Fetch(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	return eventstore.Ordered(ids, fetched), nil
}
