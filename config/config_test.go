package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultPath))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MigrationsDir != "migrations" {
		t.Errorf("MigrationsDir = %q, want migrations", cfg.MigrationsDir)
	}
	if cfg.AutoApprove {
		t.Error("AutoApprove should default to false")
	}
	if len(cfg.Disabled) != 0 {
		t.Errorf("Disabled = %v, want empty", cfg.Disabled)
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	content := "migrations_dir: db/migrations\nauto_approve: true\ndisabled:\n  - transaction-wrapper\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MigrationsDir != "db/migrations" {
		t.Errorf("MigrationsDir = %q", cfg.MigrationsDir)
	}
	if !cfg.AutoApprove {
		t.Error("AutoApprove not parsed")
	}
	if len(cfg.Disabled) != 1 || cfg.Disabled[0] != "transaction-wrapper" {
		t.Errorf("Disabled = %v", cfg.Disabled)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("disabled: {not: [valid"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should be an error")
	}
}
