package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LiveModel != "" || cfg.DataDir != "" {
		t.Errorf("cfg = %+v, want zero values", cfg)
	}
}

func TestLoadFromReadsYAML(t *testing.T) {
	dir := t.TempDir()
	content := []byte("live_model: custom-live\nvoice: Kore\ndata_dir: /tmp/ts\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LiveModel != "custom-live" || cfg.Voice != "Kore" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionsDir() != "/tmp/ts" {
		t.Errorf("SessionsDir = %q", cfg.SessionsDir())
	}
}

func TestLoadFromBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-test")
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey = %v", err)
	}

	t.Setenv(EnvAPIKey, "")
	cfg, err = LoadFrom(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.RequireAPIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestSessionsDirDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.SessionsDir(); got != filepath.Join(dir, "sessions") {
		t.Errorf("SessionsDir = %q", got)
	}
}
