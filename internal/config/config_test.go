package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:8080" {
		t.Fatalf("default backend URL = %q", cfg.Backend.URL)
	}
	if cfg.Daemon.ReloadIntervalSec != 300 {
		t.Fatalf("default reload interval = %d", cfg.Daemon.ReloadIntervalSec)
	}
	if Exists() {
		t.Fatal("Exists() = true for a fresh config dir")
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.UserID = 4242
	cfg.Backend.URL = "https://subkiller.example"
	cfg.Backend.RequestTimeoutSec = 15
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.General.UserID != 4242 || got.Backend.URL != "https://subkiller.example" {
		t.Fatalf("Load() = %+v", got)
	}
	if RequestTimeout(got) != 15*time.Second {
		t.Fatalf("RequestTimeout() = %v", RequestTimeout(got))
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "subkill"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "subkill", "config.toml"), []byte("[backend\nurl="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted malformed TOML")
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.UserID = 1

	t.Setenv(EnvAPIURL, "http://env.example")
	t.Setenv(EnvUserID, "77")
	if got := GetAPIURL(cfg); got != "http://env.example" {
		t.Fatalf("GetAPIURL() = %q", got)
	}
	if got := GetUserID(cfg); got != 77 {
		t.Fatalf("GetUserID() = %d", got)
	}

	t.Setenv(EnvUserID, "not-a-number")
	if got := GetUserID(cfg); got != 1 {
		t.Fatalf("GetUserID() with bad env = %d, want config value", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SUBKILLER_API_URL=http://dotenv.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIURL, "")
	os.Unsetenv(EnvAPIURL)
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	if got := os.Getenv(EnvAPIURL); got != "http://dotenv.example" {
		t.Fatalf("env after LoadDotEnv = %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv(missing) error: %v", err)
	}
}

func TestReloadIntervalFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Daemon.ReloadIntervalSec = 1
	if got := ReloadInterval(cfg); got != 10*time.Second {
		t.Fatalf("ReloadInterval() = %v", got)
	}
}
