package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connector.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("bootstrap:loader_test - write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"name": "shopstream-connector",
		"version": "1.0",
		"backends": [
			{"name": "shopstream"},
			{"name": "shopstream", "version": "1.7.0", "parent": "shopstream"}
		],
		"modules": {"connector": "installed", "connector_shopstream": "installed"},
		"checks": [
			{"backend": "shopstream", "version": "1.7.0", "role": "binder", "entityType": "res.partner"}
		]
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadConfig failed: %v", err)
	}

	if cfg.Name != "shopstream-connector" {
		t.Errorf("bootstrap:loader_test - Name = %q, want %q", cfg.Name, "shopstream-connector")
	}
	if len(cfg.Backends) != 2 {
		t.Errorf("bootstrap:loader_test - expected 2 backends, got %d", len(cfg.Backends))
	}
	if cfg.Backends[1].Parent != "shopstream" {
		t.Errorf("bootstrap:loader_test - Parent = %q, want %q", cfg.Backends[1].Parent, "shopstream")
	}
	if cfg.Modules["connector"] != "installed" {
		t.Errorf("bootstrap:loader_test - module state = %q, want installed", cfg.Modules["connector"])
	}
	if len(cfg.Checks) != 1 || cfg.Checks[0].Role != "binder" {
		t.Errorf("bootstrap:loader_test - checks not parsed: %+v", cfg.Checks)
	}
}

func TestLoadConfig_FirstReadablePathWins(t *testing.T) {
	good := writeConfig(t, `{"name": "from-second"}`)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"), good)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-second" {
		t.Errorf("bootstrap:loader_test - Name = %q, want %q", cfg.Name, "from-second")
	}
}

func TestLoadConfig_MalformedFileSkipped(t *testing.T) {
	bad := writeConfig(t, `{not json`)
	good := writeConfig(t, `{"name": "good"}`)

	cfg, err := LoadConfig(bad, good)
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadConfig failed: %v", err)
	}
	if cfg.Name != "good" {
		t.Errorf("bootstrap:loader_test - Name = %q, want %q", cfg.Name, "good")
	}
}

func TestLoadConfig_EnvFallback(t *testing.T) {
	path := writeConfig(t, `{"name": "from-env"}`)
	t.Setenv("CONNECTOR_BOOTSTRAP_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("bootstrap:loader_test - LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("bootstrap:loader_test - Name = %q, want %q", cfg.Name, "from-env")
	}
}

func TestLoadConfig_NothingFound(t *testing.T) {
	t.Setenv("CONNECTOR_BOOTSTRAP_FILE", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("bootstrap:loader_test - expected error when no config is readable")
	}
}
