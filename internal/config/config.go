package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/catalog"
)

// Defaults applied by the getters.
const (
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultListen           = "127.0.0.1:7878"
	DefaultDiscoveryTimeout = 5 * time.Second
	DefaultStopDelay        = 30 * time.Second
)

type Config struct {
	CatalogURL string `koanf:"catalog_url"` // JSON catalog (default: the sample music catalog)
	LogLevel   string `koanf:"log_level"`   // "debug", "info", "warn", "error"
	LogFormat  string `koanf:"log_format"`  // "console" or "json"
	StopDelay  string `koanf:"stop_delay"`  // idle time before releasing the player, e.g. "30s"
	DataDir    string `koanf:"data_dir"`    // favorites database location (default: XDG data dir)

	Art           ArtConfig          `koanf:"art"`
	HTTP          HTTPConfig         `koanf:"http"`
	Cast          CastConfig         `koanf:"cast"`
	Notifications NotificationConfig `koanf:"notifications"`
	MPRIS         MPRISConfig        `koanf:"mpris"`
}

// ArtConfig holds album art cache settings.
type ArtConfig struct {
	CacheSize string `koanf:"cache_size"` // in-memory budget, e.g. "12 MiB" (capped at 12 MiB)
	CacheDir  string `koanf:"cache_dir"`  // on-disk renditions (default: XDG cache dir)
}

// HTTPConfig holds the control API settings.
type HTTPConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Listen  string `koanf:"listen"`  // address to listen on
}

// CastConfig holds UPnP renderer settings.
type CastConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Device           string `koanf:"device"`            // friendly name; empty picks the first renderer found
	DiscoveryTimeout string `koanf:"discovery_timeout"` // SSDP search window, e.g. "5s"
}

// NotificationConfig holds desktop notification settings.
type NotificationConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// MPRISConfig holds media session settings.
type MPRISConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

func Load() (*Config, error) {
	return loadFrom(getConfigPaths())
}

func loadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	// last wins
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.CatalogURL = strings.TrimSpace(cfg.CatalogURL)
	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.Art.CacheDir = expandPath(cfg.Art.CacheDir)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/wavecast/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "wavecast", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetCatalogURL returns the catalog URL, or the default catalog.
func (c *Config) GetCatalogURL() string {
	if c.CatalogURL == "" {
		return catalog.DefaultCatalogURL
	}
	return c.CatalogURL
}

// GetLogLevel returns the normalized log level.
func (c *Config) GetLogLevel() string {
	switch lvl := strings.ToLower(c.LogLevel); lvl {
	case "debug", "info", "warn", "error":
		return lvl
	default:
		return DefaultLogLevel
	}
}

// GetLogFormat returns "json" or "console".
func (c *Config) GetLogFormat() string {
	if strings.EqualFold(c.LogFormat, "json") {
		return "json"
	}
	return DefaultLogFormat
}

// GetStopDelay returns the idle delay before the player is released.
func (c *Config) GetStopDelay() time.Duration {
	return parseDuration(c.StopDelay, DefaultStopDelay)
}

// GetArtCacheBytes returns the in-memory art budget in bytes. Invalid or
// oversized values fall back to the maximum.
func (c *Config) GetArtCacheBytes() int64 {
	if c.Art.CacheSize == "" {
		return albumart.MaxCacheBytes
	}
	n, err := humanize.ParseBytes(c.Art.CacheSize)
	if err != nil || n == 0 || n > albumart.MaxCacheBytes {
		return albumart.MaxCacheBytes
	}
	return int64(n)
}

// HTTPEnabled reports whether the control API should be served.
func (c *Config) HTTPEnabled() bool { return boolOr(c.HTTP.Enabled, true) }

// GetListen returns the control API address.
func (c *Config) GetListen() string {
	if c.HTTP.Listen == "" {
		return DefaultListen
	}
	return c.HTTP.Listen
}

// HasCastConfig returns true if casting to UPnP renderers is enabled.
func (c *Config) HasCastConfig() bool { return c.Cast.Enabled }

// GetDiscoveryTimeout returns the renderer search window.
func (c *Config) GetDiscoveryTimeout() time.Duration {
	return parseDuration(c.Cast.DiscoveryTimeout, DefaultDiscoveryTimeout)
}

// NotificationsEnabled reports whether desktop notifications are shown.
func (c *Config) NotificationsEnabled() bool { return boolOr(c.Notifications.Enabled, true) }

// MPRISEnabled reports whether the media session is exported on D-Bus.
func (c *Config) MPRISEnabled() bool { return boolOr(c.MPRIS.Enabled, true) }

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
