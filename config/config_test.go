package config

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.MaxRetries != defaultMaxRetries {
		t.Errorf("Expected default MaxRetries %d, got %d", defaultMaxRetries, cfg.MaxRetries)
	}
	if cfg.MaxAgentDepth != defaultMaxDepth {
		t.Errorf("Expected default MaxAgentDepth %d, got %d", defaultMaxDepth, cfg.MaxAgentDepth)
	}
	if cfg.SessionBackend != "file" {
		t.Errorf("Expected default session backend 'file', got %q", cfg.SessionBackend)
	}
	if len(cfg.Toolsets) != 1 || cfg.Toolsets[0].Name != "default" {
		t.Errorf("Expected a synthesized default toolset, got %+v", cfg.Toolsets)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		MaxRetries:     7,
		SessionBackend: "sqlite",
		Toolsets:       []Toolset{{Name: "default", Tools: []string{"read_file"}}},
	}
	cfg.applyDefaults()

	if cfg.MaxRetries != 7 {
		t.Errorf("Explicit MaxRetries overwritten: %d", cfg.MaxRetries)
	}
	if cfg.SessionBackend != "sqlite" {
		t.Errorf("Explicit backend overwritten: %q", cfg.SessionBackend)
	}
	if len(cfg.Toolsets[0].Tools) != 1 {
		t.Errorf("Explicit toolset overwritten: %+v", cfg.Toolsets)
	}
}

func TestGetToolset(t *testing.T) {
	cfg := &Config{Toolsets: []Toolset{
		{Name: "default", Tools: []string{"read_file"}},
		{Name: "web", Tools: []string{"read_website"}},
	}}

	ts, err := cfg.GetToolset("web")
	if err != nil {
		t.Fatalf("GetToolset failed: %v", err)
	}
	if ts.Tools[0] != "read_website" {
		t.Errorf("Wrong toolset returned: %+v", ts)
	}

	// Empty name and unknown names fall back to default.
	ts, err = cfg.GetToolset("")
	if err != nil || ts.Name != "default" {
		t.Errorf("Empty name should resolve to default, got %+v, %v", ts, err)
	}
	ts, err = cfg.GetToolset("nonexistent")
	if err != nil || ts.Name != "default" {
		t.Errorf("Unknown name should fall back to default, got %+v, %v", ts, err)
	}
}

func TestGetToolsetMissingDefault(t *testing.T) {
	cfg := &Config{Toolsets: []Toolset{{Name: "web"}}}
	if _, err := cfg.GetToolset("default"); err == nil {
		t.Error("Expected an error when the default toolset is missing")
	}
}
