package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Name != "voltaudit" {
		t.Fatalf("app.name = %q, want voltaudit", cfg.App.Name)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN == "" {
		t.Fatalf("database config = %+v", cfg.Database)
	}
	if cfg.Server.Addr != ":8090" {
		t.Fatalf("server.addr = %q, want :8090", cfg.Server.Addr)
	}
	if cfg.Workflow.ReminderDays != 2 || cfg.Workflow.EscalationDays != 5 {
		t.Fatalf("workflow thresholds = %+v", cfg.Workflow)
	}
	if cfg.Workflow.SweepSpec != "@every 3m" {
		t.Fatalf("sweep spec = %q", cfg.Workflow.SweepSpec)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: voltaudit
  env: staging
database:
  driver: sqlite
  dsn: /tmp/voltaudit-test.db
server:
  addr: ":9999"
bus:
  heartbeat_interval: 10s
workflow:
  reminder_days: 1
  escalation_days: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Env != "staging" {
		t.Fatalf("app.env = %q, want staging", cfg.App.Env)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("server.addr = %q, want :9999", cfg.Server.Addr)
	}
	if cfg.Bus.HeartbeatInterval != 10*time.Second {
		t.Fatalf("heartbeat = %v, want 10s", cfg.Bus.HeartbeatInterval)
	}
	if cfg.Workflow.ReminderDays != 1 || cfg.Workflow.EscalationDays != 3 {
		t.Fatalf("workflow thresholds = %+v", cfg.Workflow)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workflow:\n  reminder_days: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(context.Background(), path); err == nil {
		t.Fatalf("negative threshold must be rejected")
	}
}

func TestEffectivePresenceTimeout(t *testing.T) {
	t.Parallel()

	bus := BusConfig{HeartbeatInterval: 30 * time.Second}
	if got := bus.EffectivePresenceTimeout(); got != time.Minute {
		t.Fatalf("derived timeout = %v, want 1m", got)
	}

	bus.PresenceTimeout = 45 * time.Second
	if got := bus.EffectivePresenceTimeout(); got != 45*time.Second {
		t.Fatalf("explicit timeout = %v, want 45s", got)
	}
}
