package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Backend struct {
		WebSocketURL      string        `yaml:"websocket_url"`
		RESTURL           string        `yaml:"rest_url"`
		ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
		MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
		PingInterval      time.Duration `yaml:"ping_interval"`
		RequestTimeout    time.Duration `yaml:"request_timeout"`
	} `yaml:"backend"`
	Cache struct {
		HistoryTTL time.Duration `yaml:"history_ttl"`
		ChatTTL    time.Duration `yaml:"chat_ttl"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Decode over non-zero defaults so an absent metrics section keeps
	// the endpoint on while an explicit enabled:false turns it off.
	var c Config
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("BACKEND_WS_URL"); v != "" {
		c.Backend.WebSocketURL = v
	}
	if v := os.Getenv("BACKEND_REST_URL"); v != "" {
		c.Backend.RESTURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.WebSocketURL == "" {
		return fmt.Errorf("backend.websocket_url is required")
	}
	if c.Backend.RESTURL == "" {
		return fmt.Errorf("backend.rest_url is required")
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Backend.ReconnectDelay <= 0 {
		c.Backend.ReconnectDelay = time.Second
	}
	if c.Backend.MaxReconnectDelay <= 0 {
		c.Backend.MaxReconnectDelay = 30 * time.Second
	}
	if c.Backend.PingInterval <= 0 {
		c.Backend.PingInterval = 25 * time.Second
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	return nil
}
