package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName   = "mrtea"
	envPrefix = "MRTEA_"
)

// Config holds application configuration.
type Config struct {
	EnvFile           string        `koanf:"env_file"`
	CacheDir          string        `koanf:"cache_dir"`
	CallbackAddr      string        `koanf:"callback_addr"`
	AuthTimeout       time.Duration `koanf:"auth_timeout"`
	RefreshSkew       time.Duration `koanf:"refresh_skew"`
	OAuthScope        string        `koanf:"oauth_scope"`
	LogLevel          string        `koanf:"log_level"`
	Theme             string        `koanf:"theme"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	NotifyOnComplete  bool          `koanf:"notify_on_complete"`
}

// Defaults
const (
	DefaultEnvFile           = ".env"
	DefaultCallbackAddr      = "localhost:7890"
	DefaultAuthTimeout       = 3 * time.Minute
	DefaultRefreshSkew       = 60 * time.Second
	DefaultOAuthScope        = "api"
	DefaultLogLevel          = "info"
	DefaultTheme             = "gruvbox"
	DefaultRequestsPerSecond = 5.0
)

// DefaultConfigDir returns the platform-appropriate config directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, ".config", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(home, ".config", appName)
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(home, ".config", appName)
	}
}

// DefaultCacheDir returns the platform-appropriate cache directory.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".cache", appName)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", appName)
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName, "cache")
		}
		return filepath.Join(home, "AppData", "Local", appName, "cache")
	default:
		return filepath.Join(home, ".cache", appName)
	}
}

// DefaultConfigPath is where Load looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

func defaults() map[string]any {
	return map[string]any{
		"env_file":            DefaultEnvFile,
		"cache_dir":           DefaultCacheDir(),
		"callback_addr":       DefaultCallbackAddr,
		"auth_timeout":        DefaultAuthTimeout.String(),
		"refresh_skew":        DefaultRefreshSkew.String(),
		"oauth_scope":         DefaultOAuthScope,
		"log_level":           DefaultLogLevel,
		"theme":               DefaultTheme,
		"requests_per_second": DefaultRequestsPerSecond,
		"notify_on_complete":  false,
	}
}

// Load layers defaults, the TOML config file, MRTEA_* environment
// variables and overrides, in that order. An empty path reads
// DefaultConfigPath if it exists; an explicit path must exist.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.CallbackAddr == "" {
		return fmt.Errorf("callback_addr must not be empty")
	}
	if c.AuthTimeout <= 0 {
		return fmt.Errorf("auth_timeout must be positive, got %s", c.AuthTimeout)
	}
	if c.RefreshSkew < 0 {
		return fmt.Errorf("refresh_skew must not be negative, got %s", c.RefreshSkew)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond)
	}
	return nil
}

// Scopes splits OAuthScope on whitespace.
func (c *Config) Scopes() []string {
	return strings.Fields(c.OAuthScope)
}

// LogPath returns the log file location inside the cache directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.CacheDir, appName+".log")
}
