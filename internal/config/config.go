// Package config handles configuration loading from TOML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Limits  LimitsConfig  `toml:"limits"`
	Edit    EditConfig    `toml:"edit"`
	Journal JournalConfig `toml:"journal"`
	Log     LogConfig     `toml:"log"`
}

// LimitsConfig gates file reads and caps tool output.
type LimitsConfig struct {
	// MaxFileBytes rejects files larger than this before any hashing.
	MaxFileBytes int64 `toml:"max_file_bytes"`
	// MaxOutputLines caps the number of tagged lines per Read response.
	MaxOutputLines int `toml:"max_output_lines"`
	// MaxOutputBytes caps the byte size of the tagged listing per Read
	// response. Whichever limit is hit first truncates the remainder.
	MaxOutputBytes int `toml:"max_output_bytes"`
}

// MaxFileBytesOrDefault returns the configured ceiling or 1 MiB if unset.
func (l LimitsConfig) MaxFileBytesOrDefault() int64 {
	if l.MaxFileBytes <= 0 {
		return 1 << 20
	}
	return l.MaxFileBytes
}

// MaxOutputLinesOrDefault returns the configured cap or 1000 if unset.
func (l LimitsConfig) MaxOutputLinesOrDefault() int {
	if l.MaxOutputLines <= 0 {
		return 1000
	}
	return l.MaxOutputLines
}

// MaxOutputBytesOrDefault returns the configured cap or 64 KiB if unset.
func (l LimitsConfig) MaxOutputBytesOrDefault() int {
	if l.MaxOutputBytes <= 0 {
		return 64 << 10
	}
	return l.MaxOutputBytes
}

// EditConfig holds edit-tool settings.
type EditConfig struct {
	// ContextLines is the number of unchanged lines shown around the
	// affected span in edit responses. Allowed values: 0, 1, 3.
	ContextLines int `toml:"context_lines"`
}

// ContextLinesOrDefault returns the configured verbosity or 3 if unset.
func (e EditConfig) ContextLinesOrDefault() int {
	if e.ContextLines == 0 {
		return 3
	}
	return e.ContextLines
}

// JournalConfig holds edit-journal settings.
type JournalConfig struct {
	// Disabled turns off pre-edit snapshots (and undo) entirely.
	Disabled bool `toml:"disabled"`
	// Path is the journal database location. Defaults to
	// <data dir>/journal.db.
	Path string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	// Defaults to info.
	Level string `toml:"level"`
}

// LevelOrDefault returns the configured level or "info" if unset.
func (l LogConfig) LevelOrDefault() string {
	if l.Level == "" {
		return "info"
	}
	return l.Level
}

// Load reads configuration from a TOML file and applies environment variable
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	switch c.Edit.ContextLines {
	case 0, 1, 3:
	default:
		errs = append(errs, fmt.Errorf("edit.context_lines=%d must be 0, 1, or 3", c.Edit.ContextLines))
	}

	if c.Limits.MaxFileBytes < 0 {
		errs = append(errs, errors.New("limits.max_file_bytes must not be negative"))
	}
	if c.Limits.MaxOutputLines < 0 {
		errs = append(errs, errors.New("limits.max_output_lines must not be negative"))
	}
	if c.Limits.MaxOutputBytes < 0 {
		errs = append(errs, errors.New("limits.max_output_bytes must not be negative"))
	}

	switch c.Log.LevelOrDefault() {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level=%q is not a known level", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"HASHEDIT_JOURNAL_PATH", func(v string) {
			if v != "" {
				cfg.Journal.Path = v
			}
		}},
		{"HASHEDIT_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to the hashedit data directory (~/.config/hashedit).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hashedit"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
