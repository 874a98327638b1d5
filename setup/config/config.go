// Package config holds the engine's recognized configuration options (spec
// §6). It is trimmed from the teacher's multi-API config bundle down to the
// global/database/stream sections this engine actually consumes, keeping
// the teacher's YAML-tag and Verify()/Defaults() idiom.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DataSource is a database connection string. It is a distinct type (as in
// the teacher) so it is never accidentally logged or templated as a plain
// string.
type DataSource string

// Path is a filesystem path, kept as a distinct type for the same reason.
type Path string

// Config is the root of the engine's recognized configuration.
type Config struct {
	Global   Global      `yaml:"global"`
	Database DatabaseOptions `yaml:"db"`
	Stream   StreamAPI   `yaml:"stream"`
	Notify   StreamNotify `yaml:"stream_notify"`
	Logging  Logging     `yaml:"logging"`
}

// Global carries process-wide identity, independent of any one subsystem.
type Global struct {
	ServerName string `yaml:"server_name"`
}

// DatabaseOptions configures the pool backing the engine's single
// transactional store (spec §1: "the engine assumes a transactional
// SQL-capable store with a connection pool").
type DatabaseOptions struct {
	// ConnectionString is the driver-specific DSN. Its scheme selects the
	// driver: "postgres://..." or "file:...".
	ConnectionString DataSource `yaml:"connection_string"`
	// MaxOpenConns bounds concurrent connections handed to run_interaction.
	MaxOpenConns int `yaml:"max_open_conns"`
	// MaxIdleConns bounds pooled-but-idle connections.
	MaxIdleConns int `yaml:"max_idle_conns"`
	// ConnMaxLifetimeSeconds recycles connections periodically.
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

// StreamAPI carries the two options named explicitly in spec §6.
type StreamAPI struct {
	// MaxBatchSize is the default/ceiling batch size for the appservice
	// stream (4.5.3). Default 1000.
	MaxBatchSize int `yaml:"max_batch_size"`
	// FanoutConcurrency bounds concurrent per-room queries in
	// get_room_events_stream_for_rooms (4.5.2). Default 20.
	FanoutConcurrency int `yaml:"fanout_concurrency"`
}

// StreamNotify configures C8 (internal/streamnotify), the NATS-backed
// change-cache invalidation bus that bridges the write path to readers
// running in a different process (SPEC_FULL.md's supplemented C8 section).
type StreamNotify struct {
	// URL is the NATS server to connect to. Empty disables StreamNotify
	// entirely; callers fall back to same-process cache invalidation only.
	URL string `yaml:"url"`
	// SubjectPrefix namespaces subjects so multiple engine deployments can
	// share a NATS cluster without cross-talk.
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Logging configures the ambient logrus setup (internal/log).
type Logging struct {
	Level string `yaml:"level"`
}

// Defaults fills in zero-valued fields with the engine's documented
// defaults, mirroring the teacher's per-section Defaults() method.
func (c *Config) Defaults() {
	if c.Stream.MaxBatchSize == 0 {
		c.Stream.MaxBatchSize = 1000
	}
	if c.Stream.FanoutConcurrency == 0 {
		c.Stream.FanoutConcurrency = 20
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Notify.SubjectPrefix == "" {
		c.Notify.SubjectPrefix = "streamengine"
	}
}

// ConfigErrors accumulates Verify() failures the way the teacher's
// setup/config package does, so a caller gets every problem at once rather
// than stopping at the first.
type ConfigErrors []string

func (e *ConfigErrors) Add(msg string) {
	*e = append(*e, msg)
}

func (e ConfigErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	out := "configuration errors:\n"
	for _, m := range e {
		out += "  - " + m + "\n"
	}
	return out
}

func checkNotEmpty(errs *ConfigErrors, name, value string) {
	if value == "" {
		errs.Add(fmt.Sprintf("%s must not be empty", name))
	}
}

func checkPositive(errs *ConfigErrors, name string, value int64) {
	if value <= 0 {
		errs.Add(fmt.Sprintf("%s must be a positive integer", name))
	}
}

// Verify checks the loaded configuration, returning a non-nil error
// (ConfigErrors) describing every problem found.
func (c *Config) Verify() error {
	var errs ConfigErrors
	checkNotEmpty(&errs, "global.server_name", c.Global.ServerName)
	checkNotEmpty(&errs, "db.connection_string", string(c.Database.ConnectionString))
	checkPositive(&errs, "stream.max_batch_size", int64(c.Stream.MaxBatchSize))
	checkPositive(&errs, "stream.fanout_concurrency", int64(c.Stream.FanoutConcurrency))
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Load reads and parses a YAML config file, applies defaults, and verifies
// it, in that order (the teacher's standard load sequence).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Defaults()
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConnMaxLifetime returns ConnMaxLifetimeSeconds as a time.Duration,
// defaulting to no limit when unset.
func (d DatabaseOptions) ConnMaxLifetime() time.Duration {
	if d.ConnMaxLifetimeSeconds <= 0 {
		return 0
	}
	return time.Duration(d.ConnMaxLifetimeSeconds) * time.Second
}
