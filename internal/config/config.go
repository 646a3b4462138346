package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings tracklist reads from its config file and the
// environment.
type Config struct {
	APIBase        string        `env:"TRACKLIST_API_BASE"`
	ReadyTimeout   time.Duration `env:"TRACKLIST_READY_TIMEOUT"`
	RequestTimeout time.Duration `env:"TRACKLIST_REQUEST_TIMEOUT"`
	LogFile        string        `env:"TRACKLIST_LOG_FILE"`
	LogLevel       string        `env:"TRACKLIST_LOG_LEVEL"`
}

const (
	defaultConfigPath   = "~/.config/tracklist/config.toml"
	defaultAPIBase      = "http://127.0.0.1:3000/api"
	defaultReadyTimeout = 2 * time.Second
	defaultLogLevel     = "info"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:      defaultAPIBase,
		ReadyTimeout: defaultReadyTimeout,
		LogLevel:     defaultLogLevel,
	}
}

// Load parses the config file at path (or the default location), falling
// back to defaults when it is missing, then applies TRACKLIST_* environment
// overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase        string `toml:"api_base"`
		ReadyTimeout   string `toml:"ready_timeout"`
		RequestTimeout string `toml:"request_timeout"`
		LogFile        string `toml:"log_file"`
		LogLevel       string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(raw.ReadyTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ready_timeout %q: %w", v, err)
		}
		cfg.ReadyTimeout = d
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse request_timeout %q: %w", v, err)
		}
		cfg.RequestTimeout = d
	}
	cfg.LogFile = strings.TrimSpace(raw.LogFile)
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func (c *Config) normalize() error {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative: %s", c.RequestTimeout)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFile = strings.TrimSpace(c.LogFile)
	if c.LogFile != "" {
		expanded, err := expandPath(c.LogFile)
		if err != nil {
			return fmt.Errorf("resolve log_file: %w", err)
		}
		c.LogFile = expanded
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
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
