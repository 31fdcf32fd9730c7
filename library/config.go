package library

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

// Config tells the API client where the backend lives.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// DefaultConfig targets a backend on localhost.
func DefaultConfig() Config {
	return Config{BaseURL: defaultBaseURL, Timeout: defaultTimeout}
}

// ConfigFromEnv overlays LMS_SERVER, LMS_TOKEN and LMS_TIMEOUT on the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v := os.Getenv("LMS_SERVER"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LMS_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("LMS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("LMS_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}
