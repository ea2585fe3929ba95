package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 1234\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 1234 {
		t.Fatalf("expected port 1234, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Fatalf("expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Server.MaxUploadMB != 256 {
		t.Fatalf("expected default upload limit 256, got %d", cfg.Server.MaxUploadMB)
	}
	if cfg.Relay.Timeout != "60s" {
		t.Fatalf("expected default relay timeout, got %q", cfg.Relay.Timeout)
	}
	if !cfg.Outbox.OutboxEnabled() {
		t.Fatalf("outbox should default to enabled")
	}
}

func TestLoadConfigOutboxCanBeDisabled(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "outbox:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Outbox.OutboxEnabled() {
		t.Fatalf("outbox.enabled=false in the config file, but the flusher is still enabled")
	}
	// The explicit value must survive the default pass.
	if cfg.Outbox.Enabled == nil || *cfg.Outbox.Enabled {
		t.Fatalf("explicit enabled=false was overwritten")
	}
}

func TestLoadConfigOutboxExplicitTrue(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "outbox:\n  enabled: true\n  flush_interval: 30s\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Outbox.OutboxEnabled() {
		t.Fatalf("expected outbox enabled")
	}
	if cfg.Outbox.FlushInterval != "30s" {
		t.Fatalf("expected flush interval 30s, got %q", cfg.Outbox.FlushInterval)
	}
}
