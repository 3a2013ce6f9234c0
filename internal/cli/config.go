package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
)

// Registry backend names accepted in config and flags.
const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

// Default event settings applied when neither config file nor flags
// say otherwise.
const (
	defaultTotal     = 1000
	defaultBatchSize = 1000
	defaultTitle     = "GRAN BINGO DE FES-TE JOVE"
)

// EventConfig describes one generation run: the event identity printed
// on the cards and the knobs controlling generation. It can be loaded
// from a TOML file and overridden by flags.
//
// Example file:
//
//	title = "GRAN BINGO DE FES-TE JOVE"
//	event = "festa-major-2026"
//	round = 9
//	total = 9000
//	workers = 4
//
//	[registry]
//	backend = "redis"
//	addr = "localhost:6379"
type EventConfig struct {
	// Title is the heading printed alongside the cards.
	Title string `toml:"title"`

	// Event names the event for registry scoping. Required only for
	// shared registry backends.
	Event string `toml:"event"`

	// Round is the opaque round label carried through to output.
	Round int `toml:"round"`

	// Total is the number of unique cards to produce.
	Total int `toml:"total"`

	// BatchSize is the progress-reporting granularity.
	BatchSize int `toml:"batch_size"`

	// Workers is the generator worker count (0 = session default).
	Workers int `toml:"workers"`

	// Seed makes generation reproducible (0 = auto-seed).
	Seed uint64 `toml:"seed"`

	// Registry selects the fingerprint registry backend.
	Registry RegistryConfig `toml:"registry"`
}

// RegistryConfig selects and configures a registry backend.
type RegistryConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend string `toml:"backend"`

	// Addr is the Redis address for the redis backend.
	Addr string `toml:"addr"`

	// Password is the optional Redis password.
	Password string `toml:"password"`

	// DB is the Redis database number.
	DB int `toml:"db"`

	// TTLHours is how long the event's fingerprint set lives after the
	// last insert. Zero uses the registry default.
	TTLHours int `toml:"ttl_hours"`
}

// TTL converts the configured hours to a duration.
func (r RegistryConfig) TTL() time.Duration {
	return time.Duration(r.TTLHours) * time.Hour
}

// DefaultConfig returns an EventConfig with defaults applied.
func DefaultConfig() EventConfig {
	return EventConfig{
		Title:     defaultTitle,
		Round:     1,
		Total:     defaultTotal,
		BatchSize: defaultBatchSize,
	}
}

// LoadConfig reads a TOML event config. Missing fields keep their
// defaults; unknown keys are rejected to catch typos early.
func LoadConfig(path string) (EventConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "reading config %s", path)
	}

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parsing config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, apperrors.New(apperrors.ErrCodeInvalidConfig,
			"unknown config key %q in %s", undecoded[0].String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config's generation parameters.
func (c *EventConfig) Validate() error {
	if err := apperrors.ValidateTotal(c.Total); err != nil {
		return err
	}
	if err := apperrors.ValidateBatchSize(c.BatchSize); err != nil {
		return err
	}
	if err := apperrors.ValidateWorkers(c.Workers); err != nil {
		return err
	}
	if c.Registry.Backend == RegistryRedis {
		return apperrors.ValidateEventName(c.Event)
	}
	return nil
}
