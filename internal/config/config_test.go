package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replaycore.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.DB.Driver != "memory" {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
db:
  driver: sqlite
  dsn: /tmp/replay.db
reports_dir: /tmp/reports
registry_path: /tmp/registry.yaml
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.DB.Driver != "sqlite" || cfg.DB.DSN != "/tmp/replay.db" {
		t.Fatalf("config mismatch: %+v", cfg)
	}
	if cfg.ReportsDir != "/tmp/reports" || cfg.RegistryPath != "/tmp/registry.yaml" {
		t.Fatalf("paths mismatch: %+v", cfg)
	}
}

func TestLoad_EnvExpansionInFile(t *testing.T) {
	t.Setenv("REPLAY_TEST_DSN", "/tmp/expanded.db")
	path := writeConfig(t, `
db:
  driver: sqlite
  dsn: ${REPLAY_TEST_DSN}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.DSN != "/tmp/expanded.db" {
		t.Fatalf("expansion mismatch: %+v", cfg.DB)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("REPLAYCORE_LISTEN_ADDR", ":7070")
	path := writeConfig(t, "listen_addr: \":9090\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("env must win over file: %+v", cfg)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"sqlite without dsn", Config{ListenAddr: ":1", DB: DBConfig{Driver: "sqlite"}}},
		{"unknown driver", Config{ListenAddr: ":1", DB: DBConfig{Driver: "postgres"}}},
		{"pubsub topic without project", Config{ListenAddr: ":1", DB: DBConfig{Driver: "memory"}, Events: EventsConfig{PubSubTopic: "t"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %+v", tc.cfg)
			}
		})
	}
}
