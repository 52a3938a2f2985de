// Package config loads subkill's TOML configuration and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the file.
const (
	EnvAPIURL = "SUBKILLER_API_URL"
	EnvUserID = "SUBKILLER_USER_ID"
	EnvBotTok = "SUBKILLER_BOT_TOKEN"
)

// Config holds all subkill configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Backend    BackendConfig    `toml:"backend"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Cache      CacheConfig      `toml:"cache"`
	Appearance AppearanceConfig `toml:"appearance"`
	Logging    LoggingConfig    `toml:"logging"`
}

// GeneralConfig holds identity fallbacks.
type GeneralConfig struct {
	UserID    int64  `toml:"user_id,omitempty"`
	LaunchURL string `toml:"launch_url,omitempty"`
}

// BackendConfig holds SubKiller API settings.
type BackendConfig struct {
	URL               string `toml:"url"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
	// BotToken enables local verification of stored launch data.
	BotToken string `toml:"bot_token,omitempty"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr              string  `toml:"addr"`
	ReloadIntervalSec int     `toml:"reload_interval_sec"`
	RateLimitRPS      float64 `toml:"rate_limit_rps"`
	RateLimitBurst    int     `toml:"rate_limit_burst"`
	EventsBuffer      int     `toml:"events_buffer"`
}

// CacheConfig controls the on-disk snapshot cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			URL: "http://localhost:8080",
		},
		Daemon: DaemonConfig{
			Addr:              "127.0.0.1:8787",
			ReloadIntervalSec: 300,
			RateLimitRPS:      5,
			RateLimitBurst:    10,
			EventsBuffer:      200,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "subkill")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "subkill")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "subkill")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "subkill")
}

// CachePath returns the snapshot database path.
func CachePath(cfg Config) string {
	if cfg.Cache.Path != "" {
		return cfg.Cache.Path
	}
	return filepath.Join(CacheDir(), "snapshots.db")
}

// LogPath returns where the TUI writes its log.
func LogPath(cfg Config) string {
	if cfg.Logging.File != "" {
		return cfg.Logging.File
	}
	return filepath.Join(CacheDir(), "subkill.log")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// GetAPIURL returns the backend URL from env var or config, in that order.
func GetAPIURL(cfg Config) string {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		return v
	}
	return cfg.Backend.URL
}

// GetUserID returns the fallback user id from env var or config, in that order.
func GetUserID(cfg Config) int64 {
	if v := strings.TrimSpace(os.Getenv(EnvUserID)); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return cfg.General.UserID
}

// GetBotToken returns the bot token from env var or config, in that order.
func GetBotToken(cfg Config) string {
	if v := strings.TrimSpace(os.Getenv(EnvBotTok)); v != "" {
		return v
	}
	return cfg.Backend.BotToken
}

// RequestTimeout converts the configured timeout. Zero disables it.
func RequestTimeout(cfg Config) time.Duration {
	if cfg.Backend.RequestTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(cfg.Backend.RequestTimeoutSec) * time.Second
}

// ReloadInterval returns the daemon's reload period, never below 10s.
func ReloadInterval(cfg Config) time.Duration {
	return time.Duration(max(cfg.Daemon.ReloadIntervalSec, 10)) * time.Second
}
