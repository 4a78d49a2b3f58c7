// Package config loads the optional stow configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/stow/internal/filter"
)

// Config represents the optional stow configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Archive  ArchiveConfig  `toml:"archive"`
}

// DefaultsConfig holds persistent flag defaults. Nil pointers mean the key
// was not set.
type DefaultsConfig struct {
	Exclude        []string `toml:"exclude"`
	ExcludeFrom    []string `toml:"exclude_from"`
	PrintFilenames *bool    `toml:"print_filenames"`
	MeasureFirst   *bool    `toml:"measure_first"`
	Log            *string  `toml:"log"`
}

// ArchiveConfig holds settings for reading archives.
type ArchiveConfig struct {
	BlockCache *string `toml:"block_cache"` // e.g. "64M"
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "stow", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file yields a zero
// Config; unknown keys are an error so typos are not silently ignored.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// AddExcludes appends the configured exclude patterns and exclude_from
// rule files to c, patterns first.
func (d DefaultsConfig) AddExcludes(c *filter.Chain) error {
	for _, p := range d.Exclude {
		if err := c.AddExclude(p); err != nil {
			return fmt.Errorf("config exclude: %w", err)
		}
	}
	for _, f := range d.ExcludeFrom {
		if err := c.LoadFile(f); err != nil {
			return fmt.Errorf("config exclude_from: %w", err)
		}
	}
	return nil
}

// BlockCacheBytes returns the configured block cache size, or def if unset.
func (a ArchiveConfig) BlockCacheBytes(def int64) (int64, error) {
	if a.BlockCache == nil {
		return def, nil
	}
	n, err := filter.ParseSize(*a.BlockCache)
	if err != nil {
		return 0, fmt.Errorf("config block_cache: %w", err)
	}
	return n, nil
}
