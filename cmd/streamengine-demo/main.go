// Command streamengine-demo wires the engine's collaborators together via
// depgraph and serves a /metrics endpoint, the way the teacher's
// cmd/dendrite-monolith-server assembles a roomserver from setup/config
// before starting its HTTP muxes.
package main

import (
	"context"
	"flag"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomstream/engine/depgraph"
	"github.com/roomstream/engine/eventstore"
	"github.com/roomstream/engine/internal/changecache"
	"github.com/roomstream/engine/internal/log"
	"github.com/roomstream/engine/internal/sqlutil"
	"github.com/roomstream/engine/internal/streamnotify"
	"github.com/roomstream/engine/setup/config"
	"github.com/roomstream/engine/storage/postgres"
	"github.com/roomstream/engine/storage/shared"
	"github.com/roomstream/engine/storage/sqlite3"
	"github.com/roomstream/engine/streamengine"
	"github.com/roomstream/engine/streamid"
)

func main() {
	configPath := flag.String("config", "streamengine.yaml", "path to engine config")
	metricsAddr := flag.String("metrics-addr", ":9110", "address to serve /metrics on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log.Setup(cfg.Logging.Level)
	logger := log.WithComponent("main")

	container := depgraph.New()
	registerBuilders(container, cfg)

	engine, err := depgraph.Resolve[*streamengine.Engine](container, "engine")
	if err != nil {
		logger.WithError(err).Fatal("failed to build engine")
	}

	if cfg.Notify.URL != "" {
		bus, err := depgraph.Resolve[*streamnotify.Bus](container, "stream_notify")
		if err != nil {
			logger.WithError(err).Fatal("failed to connect stream notify bus")
		}
		defer bus.Close()
	}

	registry := prometheus.NewRegistry()
	for _, c := range engine.Collectors() {
		registry.MustRegister(c)
	}
	if roomCache, err := depgraph.Resolve[*changecache.Cache](container, "room_change_cache"); err == nil {
		for _, c := range roomCache.Collectors() {
			registry.MustRegister(c)
		}
	}
	if memberCache, err := depgraph.Resolve[*changecache.Cache](container, "membership_change_cache"); err == nil {
		for _, c := range memberCache.Collectors() {
			registry.MustRegister(c)
		}
	}

	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.WithField("addr", *metricsAddr).Info("serving metrics")
	if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
		logger.WithError(err).Fatal("metrics server exited")
	}
}

// registerBuilders declares every collaborator's construction, in the order
// spec §5 describes: each builder may call Resolve on the same container to
// pull in its own dependencies, and depgraph detects any cycle that results.
func registerBuilders(container *depgraph.Container, cfg *config.Config) {
	container.Register("conn_manager", func(*depgraph.Container) (any, error) {
		return sqlutil.NewConnectionManager(), nil
	})

	container.Register("db", func(c *depgraph.Container) (any, error) {
		conMan, err := depgraph.Resolve[*sqlutil.Connections](c, "conn_manager")
		if err != nil {
			return nil, err
		}
		return openDatabase(conMan, &cfg.Database)
	})

	container.Register("room_change_cache", func(*depgraph.Container) (any, error) {
		return changecache.New("room", 1_000_000)
	})
	container.Register("membership_change_cache", func(*depgraph.Container) (any, error) {
		return changecache.New("membership", 1_000_000)
	})

	container.Register("stream_ids", func(c *depgraph.Container) (any, error) {
		db, err := depgraph.Resolve[*shared.Database](c, "db")
		if err != nil {
			return nil, err
		}
		max, err := db.SelectMaxStreamOrdering(context.Background())
		if err != nil {
			return nil, err
		}
		return streamid.NewGenerator(max, 0), nil
	})

	container.Register("event_store", func(*depgraph.Container) (any, error) {
		return eventstore.NewMemory(), nil
	})

	if cfg.Notify.URL != "" {
		container.Register("stream_notify", func(c *depgraph.Container) (any, error) {
			roomCache, err := depgraph.Resolve[*changecache.Cache](c, "room_change_cache")
			if err != nil {
				return nil, err
			}
			memberCache, err := depgraph.Resolve[*changecache.Cache](c, "membership_change_cache")
			if err != nil {
				return nil, err
			}
			caches := map[string]*changecache.Cache{"room": roomCache, "membership": memberCache}
			return streamnotify.Connect(cfg.Notify.URL, cfg.Notify.SubjectPrefix, caches, log.WithComponent("streamnotify"))
		})
	}

	container.Register("engine", func(c *depgraph.Container) (any, error) {
		db, err := depgraph.Resolve[*shared.Database](c, "db")
		if err != nil {
			return nil, err
		}
		roomCache, err := depgraph.Resolve[*changecache.Cache](c, "room_change_cache")
		if err != nil {
			return nil, err
		}
		memberCache, err := depgraph.Resolve[*changecache.Cache](c, "membership_change_cache")
		if err != nil {
			return nil, err
		}
		streamIDs, err := depgraph.Resolve[*streamid.Generator](c, "stream_ids")
		if err != nil {
			return nil, err
		}
		events, err := depgraph.Resolve[eventstore.Store](c, "event_store")
		if err != nil {
			return nil, err
		}
		return streamengine.New(streamengine.Config{
			MaxBatchSize:      cfg.Stream.MaxBatchSize,
			FanoutConcurrency: cfg.Stream.FanoutConcurrency,
		}, db, roomCache, memberCache, streamIDs, events), nil
	})
}

func openDatabase(conMan *sqlutil.Connections, opts *config.DatabaseOptions) (*shared.Database, error) {
	dsn := string(opts.ConnectionString)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.NewDatabase(conMan, opts)
	}
	return sqlite3.NewDatabase(conMan, opts)
}
