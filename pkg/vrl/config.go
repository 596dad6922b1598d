package vrl

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata" // timezones must load without a system zoneinfo database

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// ConfigFile is the name FindConfig looks for.
const ConfigFile = "vrl.toml"

// Config represents a vrl.toml configuration file.
type Config struct {
	// Timezone is the default timezone for functions that interpret local
	// times, as an IANA name. Empty means UTC.
	Timezone string `toml:"timezone,omitempty"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level,omitempty"`

	Eval EvalConfig `toml:"eval"`
}

// EvalConfig controls how records are fed through a program.
type EvalConfig struct {
	// Concurrency bounds the number of records resolved at once. Zero means
	// GOMAXPROCS.
	Concurrency int `toml:"concurrency,omitempty"`

	// DropOnError skips records whose evaluation fails instead of stopping.
	DropOnError bool `toml:"drop_on_error,omitempty"`
}

// LoadConfig loads a vrl.toml file from the given path.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if _, err := config.Location(); err != nil {
		return nil, errors.Wrapf(err, "%s: timezone", path)
	}
	if _, err := config.Level(); err != nil {
		return nil, errors.Wrapf(err, "%s: log_level", path)
	}
	return &config, nil
}

// FindConfig searches for a vrl.toml file starting from dir and walking up
// to parent directories, stopping at a .git boundary. Returns ("", nil, nil)
// if none is found.
func FindConfig(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			config, err := LoadConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// Location loads the configured timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return LoadLocation(c.Timezone)
}

// LoadLocation is time.LoadLocation without the host-dependent "Local" and
// the empty name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, errors.Errorf("unknown time zone %q", name)
	}
	return time.LoadLocation(name)
}

// Level parses the configured log level. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, err
	}
	return level, nil
}

// Concurrency returns the effective evaluation concurrency.
func (c *Config) Concurrency() int {
	if c.Eval.Concurrency > 0 {
		return c.Eval.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Options returns the compile options implied by the config.
func (c *Config) Options() ([]Option, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, errors.Wrap(err, "timezone")
	}
	return []Option{WithTimezone(loc)}, nil
}
