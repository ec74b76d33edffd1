// Package config loads the optional mirrorsync config file. Every value
// only supplies a default for the matching CLI flag.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the whole file.
type Config struct {
	Sync   SyncConfig   `toml:"sync"`
	Filter FilterConfig `toml:"filter"`
}

// SyncConfig is the [sync] table. Nil means unset.
type SyncConfig struct {
	Manifest    *string `toml:"manifest"`
	Primary     *string `toml:"primary"`
	Secondary   *string `toml:"secondary"`
	FilesPrefix *string `toml:"files_prefix"`
	Digest      *string `toml:"digest"`
	BWLimit     *string `toml:"bwlimit"`
	UserAgent   *string `toml:"user_agent"`
}

// FilterConfig is the [filter] table. Its rules run after any given on
// the command line.
type FilterConfig struct {
	Exclude []string `toml:"exclude"`
	Include []string `toml:"include"`
	File    *string  `toml:"file"`
}

// Path returns $XDG_CONFIG_HOME/mirrorsync/config.toml, falling back to
// ~/.config. It is empty when no home directory can be found.
func Path() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "mirrorsync", "config.toml")
}

// Load reads the file at Path. The file is optional: a missing one is a
// zero Config.
func Load() (Config, error) {
	p := Path()
	if p == "" {
		return Config{}, nil
	}
	cfg, err := LoadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadFile reads the config at path, which must exist. Unknown keys are an
// error so a misspelled option is not silently dropped.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	if extra := md.Undecoded(); len(extra) > 0 {
		keys := make([]string, len(extra))
		for i, k := range extra {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
