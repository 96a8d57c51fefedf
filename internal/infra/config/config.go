// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Player  PlayerConfig  `yaml:"player"`
	Engine  EngineConfig  `yaml:"engine"`
	Library LibraryConfig `yaml:"library"`
}

// ServerConfig represents the HTTP/Socket.IO server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":4000"`
}

// PlayerConfig represents transport configuration.
type PlayerConfig struct {
	// Elapsed seconds beyond which Previous restarts the current track
	// instead of moving the selection.
	PreviousRestartSec float64 `yaml:"previous_restart_sec" default:"5" validate:"gte=0"`
	Volume             float64 `yaml:"volume" default:"1.0" validate:"gte=0,lte=1"`
	Shuffle            bool    `yaml:"shuffle"`
	Repeat             string  `yaml:"repeat" default:"off" validate:"oneof=off all one"`
}

// EngineConfig selects and configures the playback engine.
type EngineConfig struct {
	Type     string         `yaml:"type" default:"mpd" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// LibraryConfig lists the sources the library is built from at startup.
type LibraryConfig struct {
	ScanDirs []string `yaml:"scan_dirs"` // Directories walked for audio files
	Manifest string   `yaml:"manifest"`  // YAML manifest of server-hosted tracks
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for secrets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Defaults first so the env override sees the effective engine type.
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TRACKBOX_MPD_PASSWORD"); v != "" && c.Engine.Type == "mpd" {
		if c.Engine.Settings == nil {
			c.Engine.Settings = make(map[string]any)
		}
		c.Engine.Settings["password"] = v
	}
	if v := os.Getenv("TRACKBOX_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
