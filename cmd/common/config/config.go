// Package config provides configuration loading for djpult.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xlthimolx/djpult/cmd/common"
)

// Config represents the djpult configuration file structure.
type Config struct {
	MusicDir string  `json:"music_dir,omitempty"`
	Volume   float64 `json:"volume"`

	// MiscBuckets is the number of round-robin buckets for untagged files.
	MiscBuckets  int  `json:"misc_buckets"`
	KeepPrevious bool `json:"keep_previous"`

	RestrictedFade bool `json:"restricted_fade"`
	GainPath       bool `json:"gain_path"`

	NotifyWarning bool `json:"notify_warning"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Volume:      1,
		MiscBuckets: 2,
		GainPath:    true,
	}
}

// ConfigPath returns the path to the config file (~/.djpult/config.json).
func ConfigPath() string {
	return filepath.Join(common.HomeDir(), "config.json")
}

// Load loads the config from ~/.djpult/config.json.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	config.normalize()
	return config, nil
}

func (c *Config) normalize() {
	c.Volume = min(max(c.Volume, 0), 1)
	if c.MiscBuckets != 3 {
		c.MiscBuckets = 2
	}
}

// Save saves the config to ~/.djpult/config.json.
func Save(config *Config) error {
	return SaveTo(ConfigPath(), config)
}

// SaveTo writes config to path, creating its directory.
func SaveTo(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Set assigns one field by its JSON name. Values of string fields are taken
// verbatim, other values are parsed as JSON.
func (c *Config) Set(key, value string) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	// music_dir is omitted from the encoding while empty
	current, ok := fields[key]
	isString := key == "music_dir" || (ok && len(current) > 0 && current[0] == '"')
	if !ok && !isString {
		return fmt.Errorf("unknown config key %q", key)
	}

	raw := json.RawMessage(value)
	if isString || !json.Valid(raw) {
		quoted, _ := json.Marshal(value)
		raw = quoted
	}
	fields[key] = raw

	data, err = json.Marshal(fields)
	if err != nil {
		return err
	}
	next := DefaultConfig()
	if err := json.Unmarshal(data, next); err != nil {
		return fmt.Errorf("config key %s: %w", key, err)
	}
	next.normalize()
	*c = *next
	return nil
}
