package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Link.BaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected default base URL: %q", cfg.Link.BaseURL)
	}
	if cfg.Link.DefaultTTLHours != 24 {
		t.Fatalf("unexpected default TTL hours: %d", cfg.Link.DefaultTTLHours)
	}
	if cfg.Link.CodeLength != 9 {
		t.Fatalf("unexpected default code length: %d", cfg.Link.CodeLength)
	}
	if cfg.Sweep.Interval != time.Hour {
		t.Fatalf("unexpected default sweep interval: %v", cfg.Sweep.Interval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LINK_BASE_URL", "https://sho.rt")
	t.Setenv("LINK_DEFAULT_TTL_HOURS", "48")
	t.Setenv("SWEEP_INTERVAL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Link.BaseURL != "https://sho.rt" {
		t.Fatalf("env override ignored for base URL: %q", cfg.Link.BaseURL)
	}
	if cfg.Link.DefaultTTLHours != 48 {
		t.Fatalf("env override ignored for TTL: %d", cfg.Link.DefaultTTLHours)
	}
	if cfg.Sweep.Interval != 30*time.Minute {
		t.Fatalf("env override ignored for sweep interval: %v", cfg.Sweep.Interval)
	}
	if cfg.Link.TTL() != 48*time.Hour {
		t.Fatalf("TTL helper mismatch: %v", cfg.Link.TTL())
	}
}
