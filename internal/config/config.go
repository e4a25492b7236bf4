package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cesargomez89/resonate/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port           string        `toml:"port"`
	DBPath         string        `toml:"db_path"`
	MusicDir       string        `toml:"music_dir"`
	LogLevel       string        `toml:"log_level"`
	LogFormat      string        `toml:"log_format"`
	MaxDownloads   int           `toml:"max_downloads"`
	Workers        int           `toml:"workers"`
	TickInterval   time.Duration `toml:"tick_interval"`
	Volume         float64       `toml:"volume"`
	OnlineSearch   bool          `toml:"online_search"`
	SearchRate     float64       `toml:"search_rate"`
	SearchLimit    int           `toml:"search_limit"`
	SearchCacheTTL time.Duration `toml:"search_cache_ttl"`
	InstallYTDLP   bool          `toml:"install_ytdlp"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:           constants.DefaultPort,
		DBPath:         constants.DefaultDBPath,
		MusicDir:       defaultMusicDir(),
		LogLevel:       "info",
		LogFormat:      "text",
		MaxDownloads:   constants.DefaultMaxInFlight,
		Workers:        constants.DefaultWorkers,
		TickInterval:   constants.DefaultTickInterval,
		Volume:         constants.DefaultVolume,
		OnlineSearch:   true,
		SearchRate:     constants.DefaultSearchRate,
		SearchLimit:    constants.DefaultSearchLimit,
		SearchCacheTTL: constants.DefaultCacheTTL,
	}
}

// Load loads configuration from environment variables with defaults.
// If RESONATE_CONFIG names a TOML file it is applied before the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("RESONATE_CONFIG"))
}

// LoadFile applies the TOML file at path (if any) and then the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.MusicDir = getEnv("MUSIC_DIR", cfg.MusicDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.MaxDownloads = getEnvInt("MAX_DOWNLOADS", cfg.MaxDownloads)
	cfg.Workers = getEnvInt("DOWNLOAD_WORKERS", cfg.Workers)
	cfg.TickInterval = getEnvDuration("TICK_INTERVAL", cfg.TickInterval)
	cfg.Volume = getEnvFloat("VOLUME", cfg.Volume)
	cfg.OnlineSearch = getEnvBool("ONLINE_SEARCH", cfg.OnlineSearch)
	cfg.SearchRate = getEnvFloat("SEARCH_RATE", cfg.SearchRate)
	cfg.SearchLimit = getEnvInt("SEARCH_LIMIT", cfg.SearchLimit)
	cfg.SearchCacheTTL = getEnvDuration("SEARCH_CACHE_TTL", cfg.SearchCacheTTL)
	cfg.InstallYTDLP = getEnvBool("YTDLP_INSTALL", cfg.InstallYTDLP)

	return cfg, nil
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.MusicDir == "" {
		errors = append(errors, "MUSIC_DIR cannot be empty")
	}

	if c.MaxDownloads < 1 {
		errors = append(errors, fmt.Sprintf("MAX_DOWNLOADS must be at least 1, got: %d", c.MaxDownloads))
	}

	if c.Workers < 1 {
		errors = append(errors, fmt.Sprintf("DOWNLOAD_WORKERS must be at least 1, got: %d", c.Workers))
	} else if c.Workers < c.MaxDownloads {
		errors = append(errors, fmt.Sprintf("DOWNLOAD_WORKERS must be at least MAX_DOWNLOADS (%d), got: %d", c.MaxDownloads, c.Workers))
	}

	if c.TickInterval <= 0 {
		errors = append(errors, fmt.Sprintf("TICK_INTERVAL must be positive, got: %s", c.TickInterval))
	}

	if c.Volume < 0 || c.Volume > 1 {
		errors = append(errors, fmt.Sprintf("VOLUME must be between 0 and 1, got: %v", c.Volume))
	}

	if c.SearchRate <= 0 {
		errors = append(errors, fmt.Sprintf("SEARCH_RATE must be positive, got: %v", c.SearchRate))
	}

	if c.SearchLimit < 1 {
		errors = append(errors, fmt.Sprintf("SEARCH_LIMIT must be at least 1, got: %d", c.SearchLimit))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text":   true,
		"json":   true,
		"pretty": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, pretty, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func defaultMusicDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.AppDirName, "music")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Music", constants.AppDirName)
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Malformed numeric values are kept as-is so Validate can report them.
func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return -1
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
