package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the local record store.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything in RAM.
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds the listen address of the local gateway.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShellConfig describes where the application shell is published.
type ShellConfig struct {
	// Origin is the base URL the shell is served from (for example a
	// static site). When empty the embedded shell is served directly and
	// no offline cache is involved.
	Origin string `mapstructure:"origin" yaml:"origin"`
}

// OfflineConfig holds the offline cache controller settings.
type OfflineConfig struct {
	// CacheName names the cache generation. Changing it installs a new
	// generation and garbage-collects the old one on activation.
	CacheName string `mapstructure:"cache_name" yaml:"cache_name"`

	// Precache lists the shell assets, relative to the shell origin.
	Precache []string `mapstructure:"precache" yaml:"precache"`

	// ShellDocument is the cache key navigations are stored under and
	// fall back to.
	ShellDocument string `mapstructure:"shell_document" yaml:"shell_document"`

	// RefreshIntervalSec is how often the monitor refreshes the cached shell.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	// DefaultTab is the tab shown at startup: "input", "list" or "summary".
	DefaultTab string `mapstructure:"default_tab" yaml:"default_tab"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Shell    ShellConfig    `mapstructure:"shell" yaml:"shell"`
	Offline  OfflineConfig  `mapstructure:"offline" yaml:"offline"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultPrecache is the application shell manifest.
var DefaultPrecache = []string{
	"./",
	"./index.html",
	"./cub.css",
	"./cub.js",
	"./cub.webmanifest",
	"./icons/cub-icon-192.svg",
	"./icons/cub-icon-512.svg",
}

// configDir returns ~/.config/cub, or the working directory when the home
// directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cub")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/cub/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultDatabasePath returns the default SQLite path, ~/.config/cub/cub.db.
func DefaultDatabasePath() string {
	return filepath.Join(configDir(), "cub.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8787},
		Offline: OfflineConfig{
			CacheName:          "cub-cache-v1",
			Precache:           append([]string(nil), DefaultPrecache...),
			ShellDocument:      "./",
			RefreshIntervalSec: 300,
		},
		Display: DisplayConfig{DefaultTab: "input"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. CUB_*
// environment variables override file values (CUB_SERVER_PORT and so on).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("cub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("shell.origin", "")
	v.SetDefault("offline.cache_name", def.Offline.CacheName)
	v.SetDefault("offline.precache", def.Offline.Precache)
	v.SetDefault("offline.shell_document", def.Offline.ShellDocument)
	v.SetDefault("offline.refresh_interval_sec", def.Offline.RefreshIntervalSec)
	v.SetDefault("display.default_tab", def.Display.DefaultTab)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		_, isPathErr := err.(*os.PathError)
		if !isPathErr && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(cfg.Offline.Precache) == 0 {
		cfg.Offline.Precache = append([]string(nil), DefaultPrecache...)
	}
	if cfg.Offline.ShellDocument == "" {
		cfg.Offline.ShellDocument = "./"
	}
	if cfg.Offline.RefreshIntervalSec <= 0 {
		cfg.Offline.RefreshIntervalSec = 300
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("server", cfg.Server)
	v.Set("shell", cfg.Shell)
	v.Set("offline", cfg.Offline)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
