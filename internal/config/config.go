// Package config provides configuration management for PromptGate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Compression CompressionConfig `toml:"compression"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Providers   ProvidersConfig   `toml:"providers"`
	Embedder    EmbedderConfig    `toml:"embedder"`
}

// ServerConfig contains server settings
type ServerConfig struct {
	HTTPPort     int           `toml:"http_port"`
	BindAddress  string        `toml:"bind_address"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.HTTPPort)
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	LogFormat string `toml:"log_format"` // "json" or "text"
	LogLevel  string `toml:"log_level"`
}

// CompressionConfig contains prompt compression settings
type CompressionConfig struct {
	Enabled  bool     `toml:"enabled"`
	Level    string   `toml:"level"`    // "low", "medium", "high"
	Pipeline []string `toml:"pipeline"` // explicit stage list, overrides level
	UseGzip  bool     `toml:"use_gzip"`
}

// CacheConfig contains semantic cache settings
type CacheConfig struct {
	Enabled             bool          `toml:"enabled"`
	Backend             string        `toml:"backend"` // "memory" or "postgres"
	Capacity            int           `toml:"capacity"`
	TTL                 time.Duration `toml:"ttl"`
	FuzzyThreshold      float64       `toml:"fuzzy_threshold"`      // memory backend, 0 disables
	SimilarityThreshold float64       `toml:"similarity_threshold"` // postgres backend, 0 disables
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	DSN        string        `toml:"dsn"` // Full DSN (alternative to individual fields)
	Host       string        `toml:"host"`
	Port       int           `toml:"port"`
	User       string        `toml:"user"`
	Password   string        `toml:"password"`
	Database   string        `toml:"database"`
	SSLMode    string        `toml:"ssl_mode"`
	MaxConns   int           `toml:"max_conns"`
	MaxIdle    int           `toml:"max_idle"`
	ConnMaxAge time.Duration `toml:"conn_max_age"`
}

// GetDSN returns the DSN for the database
func (d *DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// ProvidersConfig contains provider-specific settings
type ProvidersConfig struct {
	Default string        `toml:"default"` // "openai" or "bedrock"
	OpenAI  OpenAIConfig  `toml:"openai"`
	Bedrock BedrockConfig `toml:"bedrock"`
}

// OpenAIConfig contains OpenAI-specific settings
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Enabled bool   `toml:"enabled"`
}

// BedrockConfig contains AWS Bedrock-specific settings
type BedrockConfig struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Region          string `toml:"region"`
	Enabled         bool   `toml:"enabled"`
}

// EmbedderConfig contains embedder settings for approximate cache matching
type EmbedderConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"` // e.g. "text-embedding-3-small"
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     8080,
			BindAddress:  "0.0.0.0",
			ReadTimeout:  time.Minute,
			WriteTimeout: 2 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			LogFormat: "json",
			LogLevel:  "info",
		},
		Compression: CompressionConfig{
			Enabled: true,
			Level:   "medium",
		},
		Cache: CacheConfig{
			Enabled:  true,
			Backend:  "memory",
			Capacity: 4096,
			TTL:      time.Hour,
		},
		Database: DatabaseConfig{
			Host:       "localhost",
			Port:       5432,
			User:       "postgres",
			Password:   "postgres",
			Database:   "promptgate",
			SSLMode:    "disable",
			MaxConns:   20,
			MaxIdle:    5,
			ConnMaxAge: 30 * time.Minute,
		},
		Providers: ProvidersConfig{
			Default: "openai",
			OpenAI: OpenAIConfig{
				Enabled: true,
			},
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		// A missing file falls back to defaults, but environment
		// overrides still apply.
		if os.IsNotExist(err) {
			cfg.substituteEnvVars()
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.substituteEnvVars()
	return cfg, nil
}

// LoadOrDefault loads config from file or returns defaults
func LoadOrDefault(path string) *Config {
	if path == "" {
		cfg := Default()
		cfg.substituteEnvVars()
		return cfg
	}

	cfg, err := Load(path)
	if err != nil {
		fmt.Printf("Warning: Failed to load config from %s: %v\n", path, err)
		return Default()
	}
	return cfg
}

// substituteEnvVars substitutes ${VAR} patterns with environment
// variables and applies direct PROMPTGATE_* environment overrides
func (c *Config) substituteEnvVars() {
	c.Providers.OpenAI.APIKey = expandEnv(c.Providers.OpenAI.APIKey)
	c.Providers.Bedrock.AccessKeyID = expandEnv(c.Providers.Bedrock.AccessKeyID)
	c.Providers.Bedrock.SecretAccessKey = expandEnv(c.Providers.Bedrock.SecretAccessKey)
	c.Embedder.APIKey = expandEnv(c.Embedder.APIKey)
	c.Database.Password = expandEnv(c.Database.Password)
	c.Database.DSN = expandEnv(c.Database.DSN)

	if v := os.Getenv("PROMPTGATE_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.HTTPPort = port
		}
	}
	if v := os.Getenv("PROMPTGATE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PROMPTGATE_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("PROMPTGATE_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("PROMPTGATE_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("PROMPTGATE_COMPRESSION_LEVEL"); v != "" {
		c.Compression.Level = v
	}
	if v := os.Getenv("PROMPTGATE_OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("PROMPTGATE_EMBEDDER_API_KEY"); v != "" {
		c.Embedder.APIKey = v
	}
}

// expandEnv expands ${VAR} patterns, leaving other values untouched
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}"))
	}
	return s
}
