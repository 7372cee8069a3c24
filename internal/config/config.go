package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the resolved client settings.
type Config struct {
	APIBase        string
	RequestTimeout time.Duration
	// Storage is a storage URL: memory://, sqlite://, postgres:// or redis://.
	Storage  string
	LogFile  string
	LogLevel string

	SyncInterval        time.Duration
	ProductsStaleAfter  time.Duration
	OrdersStaleAfter    time.Duration
	InventoryStaleAfter time.Duration

	RetryAttempts    int
	RetryBaseDelay   time.Duration
	BatchConcurrency int
}

const (
	defaultConfigPath = "~/.config/stockroom/config.toml"
	defaultDataDir    = "~/.local/share/stockroom"
	defaultAPIBase    = "http://127.0.0.1:8080"
	defaultLogLevel   = "info"

	defaultRequestTimeout      = 10 * time.Second
	defaultSyncInterval        = 5 * time.Minute
	defaultProductsStaleAfter  = 10 * time.Minute
	defaultOrdersStaleAfter    = 2 * time.Minute
	defaultInventoryStaleAfter = 5 * time.Minute
	defaultRetryAttempts       = 3
	defaultRetryBaseDelay      = time.Second
	defaultBatchConcurrency    = 3
)

// Default returns the settings used when no config file exists.
func Default() Config {
	dataDir := mustExpand(defaultDataDir)
	return Config{
		APIBase:             defaultAPIBase,
		RequestTimeout:      defaultRequestTimeout,
		Storage:             "sqlite://" + filepath.Join(dataDir, "stockroom.db"),
		LogFile:             filepath.Join(dataDir, "stockroom.log"),
		LogLevel:            defaultLogLevel,
		SyncInterval:        defaultSyncInterval,
		ProductsStaleAfter:  defaultProductsStaleAfter,
		OrdersStaleAfter:    defaultOrdersStaleAfter,
		InventoryStaleAfter: defaultInventoryStaleAfter,
		RetryAttempts:       defaultRetryAttempts,
		RetryBaseDelay:      defaultRetryBaseDelay,
		BatchConcurrency:    defaultBatchConcurrency,
	}
}

// Load reads the config at path (or the default location), falling back to
// defaults when the file is missing and for every empty field.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase             string `toml:"api_base"`
		RequestTimeout      string `toml:"request_timeout"`
		Storage             string `toml:"storage"`
		LogFile             string `toml:"log_file"`
		LogLevel            string `toml:"log_level"`
		SyncInterval        string `toml:"sync_interval"`
		ProductsStaleAfter  string `toml:"products_stale_after"`
		OrdersStaleAfter    string `toml:"orders_stale_after"`
		InventoryStaleAfter string `toml:"inventory_stale_after"`
		RetryAttempts       int    `toml:"retry_attempts"`
		RetryBaseDelay      string `toml:"retry_base_delay"`
		BatchConcurrency    int    `toml:"batch_concurrency"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(raw.Storage); v != "" {
		cfg.Storage = expandStorageURL(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if raw.RetryAttempts > 0 {
		cfg.RetryAttempts = raw.RetryAttempts
	}
	if raw.BatchConcurrency > 0 {
		cfg.BatchConcurrency = raw.BatchConcurrency
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"sync_interval", raw.SyncInterval, &cfg.SyncInterval},
		{"products_stale_after", raw.ProductsStaleAfter, &cfg.ProductsStaleAfter},
		{"orders_stale_after", raw.OrdersStaleAfter, &cfg.OrdersStaleAfter},
		{"inventory_stale_after", raw.InventoryStaleAfter, &cfg.InventoryStaleAfter},
		{"retry_base_delay", raw.RetryBaseDelay, &cfg.RetryBaseDelay},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.raw, d.dst); err != nil {
			return Config{}, err
		}
	}

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level returns the configured slog level, defaulting to info.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: expected debug, info, warn or error", value)
	}
	return level, nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func parseDuration(key, raw string, dst *time.Duration) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive, got %s", key, trimmed)
	}
	*dst = d
	return nil
}

// expandStorageURL expands a leading ~ in sqlite paths.
func expandStorageURL(raw string) string {
	const prefix = "sqlite://"
	if !strings.HasPrefix(raw, prefix) {
		return raw
	}
	path := strings.TrimPrefix(raw, prefix)
	if !strings.HasPrefix(path, "~") {
		return raw
	}
	return prefix + mustExpand(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
