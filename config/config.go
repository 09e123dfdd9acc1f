// Package config holds the client configuration: where the engine lives, how
// to authenticate, how tickets are polled and how the client logs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reoring/goklab/internal/logging"
)

// Defaults.
const (
	DefaultEngineURL    = "http://127.0.0.1:8283/modeler"
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 900 * time.Second
)

// Config holds all configuration for the client
type Config struct {
	Engine  EngineConfig  `yaml:"engine" mapstructure:"engine"`
	Polling PollingConfig `yaml:"polling" mapstructure:"polling"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// EngineConfig locates the engine. Without credentials the client
// authenticates against a local engine.
type EngineConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// PollingConfig controls ticket polling
type PollingConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// Default returns the configuration of a local engine.
func Default() *Config {
	return &Config{
		Engine:  EngineConfig{URL: DefaultEngineURL},
		Polling: PollingConfig{Interval: DefaultPollInterval, Timeout: DefaultPollTimeout},
		Log:     LogConfig{Level: "info", Format: logging.FormatText},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: unable to decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the engine URL, polling bounds and logging settings.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Engine.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("engine.url %q is not an http(s) URL", c.Engine.URL))
	}
	if (c.Engine.Username == "") != (c.Engine.Password == "") {
		errs = append(errs, errors.New("engine.username and engine.password must be set together"))
	}
	if c.Polling.Interval <= 0 {
		errs = append(errs, fmt.Errorf("polling.interval must be positive, got %s", c.Polling.Interval))
	}
	if c.Polling.Timeout < c.Polling.Interval {
		errs = append(errs, fmt.Errorf("polling.timeout %s is shorter than polling.interval %s", c.Polling.Timeout, c.Polling.Interval))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Remote reports whether credentials are configured.
func (c *Config) Remote() bool { return c.Engine.Username != "" }
