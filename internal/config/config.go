// Package config loads vocab settings from defaults, a TOML file and
// VOCAB_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/session"
)

const (
	DefaultTargetCards     = 20
	DefaultLogLevel        = "info"
	DefaultMetricsEndpoint = "localhost:4317"
	DefaultMetricsInterval = 30 // seconds
	DefaultServiceName     = "vocab"
	FileName               = "vocab.toml"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the effective application configuration.
type Config struct {
	Storage   StorageConfig      `toml:"storage"`
	Logging   LoggingConfig      `toml:"logging"`
	Scheduler SchedulerConfig    `toml:"scheduler"`
	Session   SessionConfig      `toml:"session"`
	Tags      session.Thresholds `toml:"tags"`
	Metrics   MetricsConfig      `toml:"metrics"`

	// Path is the file the config was loaded from, empty if none.
	Path string `toml:"-"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error or off
	File  string `toml:"file"`  // empty disables the file sink
}

type SchedulerConfig struct {
	MaximumInterval int `toml:"maximum_interval"` // days
}

type SessionConfig struct {
	Mode            session.Mode    `toml:"mode"`
	TargetCards     int             `toml:"target_cards"`
	DisableRecovery bool            `toml:"disable_recovery"`
	Weights         session.Weights `toml:"weights"`
}

type MetricsConfig struct {
	Enabled         bool   `toml:"enabled"`
	Endpoint        string `toml:"endpoint"` // OTLP/gRPC collector address
	Insecure        bool   `toml:"insecure"`
	IntervalSeconds int    `toml:"interval_seconds"`
	ServiceName     string `toml:"service_name"`
}

// Dir returns the vocab home directory: $VOCAB_HOME, or ~/.vocab.
func Dir() string {
	if d := os.Getenv("VOCAB_HOME"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vocab"
	}
	return filepath.Join(home, ".vocab")
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Storage: StorageConfig{Path: filepath.Join(dir, "vocab.db")},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
			File:  filepath.Join(dir, "logs", "vocab.log"),
		},
		Scheduler: SchedulerConfig{MaximumInterval: vocab.DefaultMaximumInterval},
		Session: SessionConfig{
			Mode:        session.Smart,
			TargetCards: DefaultTargetCards,
			Weights:     session.DefaultWeights,
		},
		Tags: session.DefaultThresholds,
		Metrics: MetricsConfig{
			Endpoint:        DefaultMetricsEndpoint,
			Insecure:        true,
			IntervalSeconds: DefaultMetricsInterval,
			ServiceName:     DefaultServiceName,
		},
	}
}

// Load builds the configuration. If path is empty, Dir()/vocab.toml is used
// when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	dir := Dir()
	cfg := Default(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.Path = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("VOCAB_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("VOCAB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("VOCAB_LOG_FILE"); ok {
		c.Logging.File = v
	}
	if v := os.Getenv("VOCAB_MAXIMUM_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: VOCAB_MAXIMUM_INTERVAL: %v", ErrInvalid, err)
		}
		c.Scheduler.MaximumInterval = n
	}
	if v := os.Getenv("VOCAB_SESSION_MODE"); v != "" {
		m, err := session.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%w: VOCAB_SESSION_MODE: %v", ErrInvalid, err)
		}
		c.Session.Mode = m
	}
	if v := os.Getenv("VOCAB_SESSION_TARGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: VOCAB_SESSION_TARGET: %v", ErrInvalid, err)
		}
		c.Session.TargetCards = n
	}
	if v := os.Getenv("VOCAB_SESSION_NO_RECOVERY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: VOCAB_SESSION_NO_RECOVERY: %v", ErrInvalid, err)
		}
		c.Session.DisableRecovery = b
	}
	if v := os.Getenv("VOCAB_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: VOCAB_METRICS_ENABLED: %v", ErrInvalid, err)
		}
		c.Metrics.Enabled = b
	}
	if v := os.Getenv("VOCAB_METRICS_ENDPOINT"); v != "" {
		c.Metrics.Endpoint = v
	}
	return nil
}

// Validate checks the settings that can be checked without opening anything.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is empty", ErrInvalid)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	if _, err := vocab.NewScheduler(c.SchedulerConfig()); err != nil {
		return fmt.Errorf("%w: scheduler: %v", ErrInvalid, err)
	}
	sc := c.SessionConfig()
	if sc.Mode == session.TagFocus {
		// The tag is chosen per session.
		sc.Tag = "_"
	}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("%w: session: %v", ErrInvalid, err)
	}
	if c.Metrics.Enabled {
		if c.Metrics.Endpoint == "" {
			return fmt.Errorf("%w: metrics.endpoint is empty", ErrInvalid)
		}
		if c.Metrics.IntervalSeconds <= 0 {
			return fmt.Errorf("%w: metrics.interval_seconds must be positive", ErrInvalid)
		}
	}
	return nil
}

// SessionConfig returns the session defaults as a session.Config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Mode:            c.Session.Mode,
		TargetCards:     c.Session.TargetCards,
		Weights:         c.Session.Weights,
		Thresholds:      c.Tags,
		DisableRecovery: c.Session.DisableRecovery,
	}
}

// Thresholds returns the tag classification thresholds.
func (c *Config) Thresholds() session.Thresholds {
	return c.Tags
}

// SchedulerConfig returns the scheduler settings.
func (c *Config) SchedulerConfig() vocab.SchedulerConfig {
	return vocab.SchedulerConfig{MaximumInterval: c.Scheduler.MaximumInterval}
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}
