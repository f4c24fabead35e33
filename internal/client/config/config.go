// Package config holds settings for the assetctl command-line client.
package config

import (
	"os"
	"time"
)

// Environment variables read before command-line flags.
const (
	EnvServerURL       = "ASSETORIGIN_URL"
	EnvManagementToken = "ASSETORIGIN_TOKEN"
)

// Config holds runtime settings for assetctl.
//
// ManagementToken is sent as a bearer token on upload, publish and token
// issue; it may be empty against a server without a management secret.
type Config struct {
	ServerURL       string
	ManagementToken string
	Timeout         time.Duration
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 30 * time.Second
}

// LoadConfig applies defaults and then the environment. Command-line flags
// are bound on top of the result by the CLI.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	applyEnv(cfg, os.LookupEnv)
	return cfg
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvServerURL); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookup(EnvManagementToken); ok {
		cfg.ManagementToken = v
	}
}
