package library

import (
	"testing"
	"time"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LMS_SERVER", "http://lms.local:9000/")
	t.Setenv("LMS_TOKEN", "abc")
	t.Setenv("LMS_TIMEOUT", "3s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	want := Config{BaseURL: "http://lms.local:9000", Token: "abc", Timeout: 3 * time.Second}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("LMS_SERVER", "")
	t.Setenv("LMS_TOKEN", "")
	t.Setenv("LMS_TIMEOUT", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("got %+v", cfg)
	}
}

func TestConfigFromEnvBadTimeout(t *testing.T) {
	t.Setenv("LMS_TIMEOUT", "soon")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("bad timeout accepted")
	}
}
