// Package config loads gifterm settings from a YAML file, a .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GIFTERM"

// Config holds all application configuration
type Config struct {
	Giphy   GiphyConfig   `mapstructure:"giphy"`
	Search  SearchConfig  `mapstructure:"search"`
	Library LibraryConfig `mapstructure:"library"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// GiphyConfig holds provider settings. The API key is resolved separately
// through APIKey so it can come from the environment.
type GiphyConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	PageSize int           `mapstructure:"page_size"`
	Rating   string        `mapstructure:"rating"` // g, pg, pg-13, r
	Lang     string        `mapstructure:"lang"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SearchConfig holds search session settings
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LibraryConfig holds the saved media library location
type LibraryConfig struct {
	Path string `mapstructure:"path"` // Empty keeps the library in memory
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the optional Prometheus listener
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // e.g. "127.0.0.1:9464"; empty disables
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Giphy: GiphyConfig{
			BaseURL:  "https://api.giphy.com/v1/gifs",
			PageSize: 20,
			Timeout:  30 * time.Second,
		},
		Search: SearchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Library: LibraryConfig{
			Path: filepath.Join(defaultDataPath(), "library.db"),
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "gifterm.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the directory for logs and the library on the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "gifterm")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "gifterm")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "gifterm")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "gifterm")
	}
}

// Load reads configuration. When file is empty, config.yaml is searched in
// the default config directory and the working directory; a missing file
// is not an error. A .env file in the working directory is loaded into the
// process environment first without overriding variables already set.
// The returned viper instance is what APIKey resolves against.
func Load(file string) (*Config, *viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. GIFTERM_GIPHY_PAGE_SIZE
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Library.Path = expandHome(cfg.Library.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, v, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("giphy.api_key", "")
	v.SetDefault("giphy.base_url", cfg.Giphy.BaseURL)
	v.SetDefault("giphy.page_size", cfg.Giphy.PageSize)
	v.SetDefault("giphy.rating", cfg.Giphy.Rating)
	v.SetDefault("giphy.lang", cfg.Giphy.Lang)
	v.SetDefault("giphy.timeout", cfg.Giphy.Timeout)
	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("library.path", cfg.Library.Path)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("metrics.listen", cfg.Metrics.Listen)
}

// Save writes cfg to config.yaml in dir, creating dir if needed.
// The API key is never written.
func Save(cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("giphy.base_url", cfg.Giphy.BaseURL)
	v.Set("giphy.page_size", cfg.Giphy.PageSize)
	v.Set("giphy.rating", cfg.Giphy.Rating)
	v.Set("giphy.lang", cfg.Giphy.Lang)
	v.Set("giphy.timeout", cfg.Giphy.Timeout.String())
	v.Set("search.debounce", cfg.Search.Debounce.String())
	v.Set("library.path", cfg.Library.Path)
	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("metrics.listen", cfg.Metrics.Listen)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
