// Package config loads graphkv configuration from YAML.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/plugins"
	"github.com/jrife/graphkv/storage/kv/plugins/memory"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTable is the table used when none is configured
	DefaultTable = "graph"
	// DefaultLogLevel is the log level used when none is configured
	DefaultLogLevel = "info"
	// MockPlugin is accepted as another name for the memory plugin
	MockPlugin = "mock"
)

// Config is the configuration of a graphkv client
type Config struct {
	Store StoreConfig `yaml:"store"`
	// Table holds the graph
	Table string `yaml:"table"`
	// AutoFlush flushes the writer after every mutation
	AutoFlush bool `yaml:"autoflush"`
	// MutationDelay is how long to wait after each mutation
	MutationDelay Duration `yaml:"mutation_delay"`
	Log           LogConfig `yaml:"log"`
}

// StoreConfig selects and configures a kv plugin
type StoreConfig struct {
	Plugin  string                 `yaml:"plugin"`
	Options map[string]interface{} `yaml:"options"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration is a time.Duration written as a string like "250ms"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string

	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)

	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}

	*d = Duration(parsed)

	return nil
}

// Duration returns d as a time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration of an in-memory store
func Default() Config {
	return Config{
		Store: StoreConfig{Plugin: memory.DriverName},
		Table: DefaultTable,
		Log:   LogConfig{Level: DefaultLogLevel},
	}
}

// Parse reads a YAML document. Unset fields keep their defaults.
func Parse(b []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "could not parse config")
	}

	if cfg.Store.Plugin == MockPlugin {
		cfg.Store.Plugin = memory.DriverName
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads the YAML file at path
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)

	if err != nil {
		return Config{}, errors.Wrapf(err, "could not read config %s", path)
	}

	cfg, err := Parse(b)

	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

// Validate checks that the configuration can be used
func (cfg Config) Validate() error {
	if plugins.Plugin(cfg.Store.Plugin) == nil {
		return errors.Newf("unknown store plugin %q, expected one of %v", cfg.Store.Plugin, plugins.Names())
	}

	if cfg.Table == "" {
		return errors.New("table must not be empty")
	}

	if cfg.MutationDelay < 0 {
		return errors.Newf("mutation_delay must not be negative, got %s", time.Duration(cfg.MutationDelay))
	}

	var level zapcore.Level

	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return errors.Wrapf(err, "invalid log level %q", cfg.Log.Level)
	}

	return nil
}

// OpenStore opens the configured store
func (cfg Config) OpenStore() (kv.Store, error) {
	plugin := plugins.Plugin(cfg.Store.Plugin)

	if plugin == nil {
		return nil, errors.Newf("unknown store plugin %q", cfg.Store.Plugin)
	}

	store, err := plugin.NewStore(kv.PluginOptions(cfg.Store.Options))

	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s store", plugin.Name())
	}

	return store, nil
}
