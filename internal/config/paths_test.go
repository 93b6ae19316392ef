package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPairvoxPath_Default(t *testing.T) {
	t.Setenv("PAIRVOX_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := PairvoxPath()
	want := filepath.Join(home, ".pairvox")
	if got != want {
		t.Errorf("PairvoxPath() = %q, want %q", got, want)
	}
}

func TestPairvoxPath_EnvOverride(t *testing.T) {
	t.Setenv("PAIRVOX_PATH", "/tmp/custom-pairvox")

	if got := PairvoxPath(); got != "/tmp/custom-pairvox" {
		t.Errorf("PairvoxPath() = %q", got)
	}
	if got := DotenvPath(); got != "/tmp/custom-pairvox/.env" {
		t.Errorf("DotenvPath() = %q", got)
	}
	if got := SessionsPath(); got != "/tmp/custom-pairvox/sessions" {
		t.Errorf("SessionsPath() = %q", got)
	}
}

func TestConfigPath_PrefersJSONC(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PAIRVOX_PATH", dir)

	if got := ConfigPath(); got != filepath.Join(dir, "config.jsonc") {
		t.Errorf("ConfigPath() with no files = %q", got)
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ConfigPath(); got != yamlPath {
		t.Errorf("ConfigPath() with yaml only = %q", got)
	}

	jsoncPath := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(jsoncPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ConfigPath(); got != jsoncPath {
		t.Errorf("ConfigPath() with both = %q", got)
	}
}
