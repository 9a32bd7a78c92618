package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Diary backends
const (
	DiaryBackendHTTP   = "http"
	DiaryBackendSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Catalogue     CatalogueConfig     `mapstructure:"catalogue"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Diary         DiaryConfig         `mapstructure:"diary"`
	Cache         CacheConfig         `mapstructure:"cache"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Session       SessionConfig       `mapstructure:"session"`
	Matching      MatchingConfig      `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogueConfig holds food catalogue API configuration
type CatalogueConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// TranscriptionConfig holds voice/photo capture service configuration
type TranscriptionConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// DiaryConfig selects where confirmed meals are written
type DiaryConfig struct {
	Backend    string `mapstructure:"backend"` // "http" or "sqlite"
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type            string        `mapstructure:"type"` // only "memory"
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration.
// PerIP is requests per second per client, Catalogue is outgoing catalogue requests per second.
type RateLimitConfig struct {
	PerIP     int     `mapstructure:"per_ip"`
	Burst     int     `mapstructure:"burst"`
	Catalogue float64 `mapstructure:"catalogue"`
}

// SessionConfig holds draft session lifetime settings
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

// MatchingConfig tunes catalogue search ranking
type MatchingConfig struct {
	MinQueryLength      int  `mapstructure:"min_query_length"`
	EnableFuzzyMatching bool `mapstructure:"enable_fuzzy_matching"`
	EnableDebugLogging  bool `mapstructure:"enable_debug_logging"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealdraft/")

	// MEALDRAFT_CATALOGUE_API_KEY -> catalogue.api_key
	v.SetEnvPrefix("MEALDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Server.AllowedOrigins = splitOrigins(config.Server.AllowedOrigins)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key gets a default so that
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("catalogue.api_key", "")
	v.SetDefault("catalogue.base_url", "http://localhost:8000")

	v.SetDefault("transcription.api_key", "")
	v.SetDefault("transcription.base_url", "http://localhost:8000")

	v.SetDefault("diary.backend", DiaryBackendHTTP)
	v.SetDefault("diary.api_key", "")
	v.SetDefault("diary.base_url", "http://localhost:8000")
	v.SetDefault("diary.sqlite_path", "mealdraft.db")

	// Search results go stale as the catalogue grows
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("ratelimit.per_ip", 20)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("ratelimit.catalogue", 10)

	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.janitor_interval", "1m")

	v.SetDefault("matching.min_query_length", 2)
	v.SetDefault("matching.enable_fuzzy_matching", true)
	v.SetDefault("matching.enable_debug_logging", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalogue.BaseURL == "" {
		return fmt.Errorf("catalogue base URL is required (set MEALDRAFT_CATALOGUE_BASE_URL)")
	}
	if config.Transcription.BaseURL == "" {
		return fmt.Errorf("transcription base URL is required (set MEALDRAFT_TRANSCRIPTION_BASE_URL)")
	}

	switch config.Diary.Backend {
	case DiaryBackendHTTP:
		if config.Diary.BaseURL == "" {
			return fmt.Errorf("diary base URL is required when diary backend is 'http'")
		}
	case DiaryBackendSQLite:
		if config.Diary.SQLitePath == "" {
			return fmt.Errorf("diary sqlite path is required when diary backend is 'sqlite'")
		}
	default:
		return fmt.Errorf("diary backend must be 'http' or 'sqlite', got: %s", config.Diary.Backend)
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got: %s", config.Session.TTL)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Catalogue < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	return nil
}

// splitOrigins accepts both a yaml list and a comma separated env value
func splitOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
