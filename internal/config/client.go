package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig configures the state-sync client that sits in front of the API.
type ClientConfig struct {
	Backend struct {
		BaseURL        string        `yaml:"base_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		OAuthRedirect  string        `yaml:"oauth_redirect"`
		WatchEvents    bool          `yaml:"watch_events"`
	} `yaml:"backend"`

	Mirror struct {
		Path string `yaml:"path"`
	} `yaml:"mirror"`

	Sync struct {
		// fail_open or fail_closed
		FailurePolicy string        `yaml:"failure_policy"`
		LogoutTimeout time.Duration `yaml:"logout_timeout"`
		ReadTimeout   time.Duration `yaml:"read_timeout"`
	} `yaml:"sync"`
}

const (
	PolicyFailOpen   = "fail_open"
	PolicyFailClosed = "fail_closed"
)

func DefaultClientConfig() *ClientConfig {
	cfg := &ClientConfig{}
	cfg.Backend.BaseURL = "http://localhost:8080"
	cfg.Backend.RequestTimeout = 10 * time.Second
	cfg.Backend.WatchEvents = true
	cfg.Mirror.Path = "fitconnect-mirror.db"
	cfg.Sync.FailurePolicy = PolicyFailOpen
	cfg.Sync.LogoutTimeout = 3 * time.Second
	cfg.Sync.ReadTimeout = 5 * time.Second
	return cfg
}

// LoadClient reads a YAML client config. ${VAR} references are expanded
// from the environment before parsing; missing keys keep their defaults.
func LoadClient(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client config: %w", err)
	}
	return ParseClient(data)
}

func ParseClient(data []byte) (*ClientConfig, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	cfg := DefaultClientConfig()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}

	switch cfg.Sync.FailurePolicy {
	case PolicyFailOpen, PolicyFailClosed:
	default:
		return nil, fmt.Errorf("unknown failure policy %q", cfg.Sync.FailurePolicy)
	}

	return cfg, nil
}
