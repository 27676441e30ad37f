package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("shell: /bin/zsh\nsize: 40x120\nallowed_origins:\n  - example.com\nenv:\n  - EDITOR=vi\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Shell != "/bin/zsh" || cfg.Size != "40x120" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "example.com" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
	if len(cfg.Env) != 1 || cfg.Env[0] != "EDITOR=vi" {
		t.Fatalf("env = %v", cfg.Env)
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("explicit missing config should error")
	}
}

func TestLoadConfigDefaultMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Shell != "" || cfg.Addr != "" || cfg.AllowedOrigins != nil {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\t not yaml ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("malformed config should error")
	}
}
