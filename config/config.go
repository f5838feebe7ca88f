package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	BackendKScreen = "kscreen"
	BackendSway    = "sway"
)

type MQTT struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type Config struct {
	// Display configuration service to talk to, kscreen or sway.
	Backend string `yaml:"backend"`
	// Path to the profiles document. Defaults to profiles.json next to the
	// config file.
	Profiles string `yaml:"profiles"`
	LogLevel string `yaml:"log_level"`
	// How often the agent polls the display for changes.
	PollInterval time.Duration `yaml:"poll_interval"`
	MQTT         MQTT          `yaml:"mqtt"`
}

func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "monprof", "config.yaml"), nil
}

// Default returns the configuration used when no config file exists. Paths
// are relative to dir.
func Default(dir string) *Config {
	return &Config{
		Backend:      BackendKScreen,
		Profiles:     filepath.Join(dir, "profiles.json"),
		LogLevel:     "info",
		PollInterval: 2 * time.Second,
		MQTT: MQTT{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "monprof",
		},
	}
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Debug("no config file, using defaults")
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Profiles != "" && !filepath.IsAbs(cfg.Profiles) {
		cfg.Profiles = filepath.Join(filepath.Dir(path), cfg.Profiles)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendKScreen, BackendSway:
	default:
		return fmt.Errorf("unknown backend %q, expected %s or %s", c.Backend, BackendKScreen, BackendSway)
	}
	if c.Profiles == "" {
		return fmt.Errorf("profiles path is required")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	return nil
}
