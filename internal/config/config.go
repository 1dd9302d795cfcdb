// Package config loads the stories settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Playback order values.
const (
	OrderName     = "name"
	OrderCaptured = "captured"
)

const (
	DefaultPath          = "~/.config/stories/config.toml"
	DefaultDuration      = 5 * time.Second
	DefaultHoldDelay     = 300 * time.Millisecond
	DefaultListen        = "127.0.0.1:8737"
	DefaultThumbnailSize = 96
)

// Config holds the user settings. Zero values never reach callers; Load
// fills in defaults.
type Config struct {
	Duration      time.Duration
	HoldDelay     time.Duration
	DBDir         string
	Listen        string
	Shuffle       bool
	Order         string
	ThumbnailSize int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Duration:      DefaultDuration,
		HoldDelay:     DefaultHoldDelay,
		Listen:        DefaultListen,
		Order:         OrderName,
		ThumbnailSize: DefaultThumbnailSize,
	}
}

// Load parses the config at path, or DefaultPath when path is empty. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Duration      string `toml:"duration"`
		HoldDelay     string `toml:"hold_delay"`
		DBDir         string `toml:"db_dir"`
		Listen        string `toml:"listen"`
		Shuffle       bool   `toml:"shuffle"`
		Order         string `toml:"order"`
		ThumbnailSize int    `toml:"thumbnail_size"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Duration, err = parseDuration("duration", raw.Duration, DefaultDuration); err != nil {
		return Config{}, err
	}
	if cfg.HoldDelay, err = parseDuration("hold_delay", raw.HoldDelay, DefaultHoldDelay); err != nil {
		return Config{}, err
	}

	if dir := strings.TrimSpace(raw.DBDir); dir != "" {
		if cfg.DBDir, err = expandPath(dir); err != nil {
			return Config{}, fmt.Errorf("db_dir: %w", err)
		}
	}
	if listen := strings.TrimSpace(raw.Listen); listen != "" {
		cfg.Listen = listen
	}
	cfg.Shuffle = raw.Shuffle

	switch order := strings.ToLower(strings.TrimSpace(raw.Order)); order {
	case "":
	case OrderName, OrderCaptured:
		cfg.Order = order
	default:
		return Config{}, fmt.Errorf("order: unknown value %q (want %q or %q)", raw.Order, OrderName, OrderCaptured)
	}

	switch {
	case raw.ThumbnailSize < 0:
		return Config{}, fmt.Errorf("thumbnail_size: must not be negative")
	case raw.ThumbnailSize > 0:
		cfg.ThumbnailSize = raw.ThumbnailSize
	}

	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, value)
	}
	return d, nil
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
