// Package config loads client configuration from a JSON file with
// environment variable overrides. Durations are written as Go duration
// strings ("30s", "1m").
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "HASS"

// Config holds everything needed to run a session against a hub
type Config struct {
	URL     string `json:"url"`
	Token   string `json:"token"`
	Verbose bool   `json:"verbose,omitempty"`

	ProbeInterval  time.Duration `json:"probe_interval,omitempty"`
	ConnectTimeout time.Duration `json:"connect_timeout,omitempty"`
	ReconnectDelay time.Duration `json:"reconnect_delay,omitempty"`

	// MetricsAddr, when set, serves Prometheus metrics on this address
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// Default returns a config with the standard timings filled in
func Default() *Config {
	return &Config{
		ProbeInterval:  10 * time.Second,
		ConnectTimeout: 10 * time.Second,
		ReconnectDelay: time.Second,
	}
}

// rawConfig mirrors Config with string durations for JSON
type rawConfig struct {
	URL            string `json:"url"`
	Token          string `json:"token"`
	Verbose        *bool  `json:"verbose,omitempty"`
	ProbeInterval  string `json:"probe_interval,omitempty"`
	ConnectTimeout string `json:"connect_timeout,omitempty"`
	ReconnectDelay string `json:"reconnect_delay,omitempty"`
	MetricsAddr    string `json:"metrics_addr,omitempty"`
}

// Load builds a config from defaults, an optional JSON file, and
// environment overrides, then validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if raw.URL != "" {
		c.URL = raw.URL
	}
	if raw.Token != "" {
		c.Token = raw.Token
	}
	if raw.Verbose != nil {
		c.Verbose = *raw.Verbose
	}
	if raw.MetricsAddr != "" {
		c.MetricsAddr = raw.MetricsAddr
	}

	for _, f := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"probe_interval", raw.ProbeInterval, &c.ProbeInterval},
		{"connect_timeout", raw.ConnectTimeout, &c.ConnectTimeout},
		{"reconnect_delay", raw.ReconnectDelay, &c.ReconnectDelay},
	} {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

// applyEnv overlays HASS_* environment variables on the config
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvPrefix + "_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvPrefix + "_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv(EnvPrefix + "_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s_VERBOSE: %w", EnvPrefix, err)
		}
		c.Verbose = b
	}

	for _, f := range []struct {
		name string
		dst  *time.Duration
	}{
		{"_PROBE_INTERVAL", &c.ProbeInterval},
		{"_CONNECT_TIMEOUT", &c.ConnectTimeout},
		{"_RECONNECT_DELAY", &c.ReconnectDelay},
	} {
		v := os.Getenv(EnvPrefix + f.name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, f.name, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks that the config can produce a working session
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: url is required")
	}
	if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return fmt.Errorf("config: url %q must use the ws or wss scheme", c.URL)
	}
	if c.Token == "" {
		return errors.New("config: token is required")
	}

	for _, f := range []struct {
		name  string
		value time.Duration
	}{
		{"probe_interval", c.ProbeInterval},
		{"connect_timeout", c.ConnectTimeout},
		{"reconnect_delay", c.ReconnectDelay},
	} {
		if f.value <= 0 {
			return fmt.Errorf("config: %s must be positive", f.name)
		}
	}
	return nil
}
