package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr                 string `json:"addr" yaml:"addr" toml:"addr"`
	DataDir              string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	LogLevel             string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFile              string `json:"log_file" yaml:"log_file" toml:"log_file"`
	DefaultPreference    string `json:"default_preference" yaml:"default_preference" toml:"default_preference"`
	RefreshSeconds       int    `json:"refresh_seconds" yaml:"refresh_seconds" toml:"refresh_seconds"`
	ShutdownGraceSeconds int    `json:"shutdown_grace_seconds" yaml:"shutdown_grace_seconds" toml:"shutdown_grace_seconds"`
	MaxBodyBytes         int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultAddr           = "127.0.0.1:8000"
	DefaultDataDir        = "./data"
	DefaultLogLevel       = "info"
	DefaultPreference     = "auto"
	DefaultRefreshSeconds = 30
	DefaultGraceSeconds   = 5
	DefaultMaxBodyBytes   = 1 << 20
)

// Default returns a Config with every field at its default.
func Default() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults replaces unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DefaultPreference == "" {
		c.DefaultPreference = DefaultPreference
	}
	if c.RefreshSeconds <= 0 {
		c.RefreshSeconds = DefaultRefreshSeconds
	}
	if c.ShutdownGraceSeconds <= 0 {
		c.ShutdownGraceSeconds = DefaultGraceSeconds
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
