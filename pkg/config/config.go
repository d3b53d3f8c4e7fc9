// ABOUTME: Configuration management with defaults, an optional YAML file and env overrides
// ABOUTME: Defines configuration for the server, stores, providers and the processing pipeline

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Store selects the article record store
	Store StoreConfig `yaml:"store"`

	// Cache selects the cache backend for audio blobs and model responses
	Cache CacheConfig `yaml:"cache"`

	// Redis is shared by the redis store and redis cache
	Redis RedisConfig `yaml:"redis"`

	// LLM configures model-based extraction
	LLM LLMConfig `yaml:"llm"`

	// Speech configures speech synthesis
	Speech SpeechConfig `yaml:"speech"`

	// Pipeline configures processing runs
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging configures the logger
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string `yaml:"port"`

	// PublicBaseURL prefixes audio URLs handed to clients
	PublicBaseURL string `yaml:"public_base_url"`

	// RateLimitPerSecond is the sustained request rate per client
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`

	// RateLimitBurst is the burst size per client
	RateLimitBurst int `yaml:"rate_limit_burst"`

	// CORSOrigins lists allowed origins
	CORSOrigins []string `yaml:"cors_origins"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig holds article store configuration
type StoreConfig struct {
	// Type is memory, sqlite, redis or postgres
	Type string `yaml:"type"`

	// SQLitePath is the database file for the sqlite store
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres store
	PostgresDSN string `yaml:"postgres_dsn"`
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type is memory, sqlite or redis
	Type string `yaml:"type"`

	// SQLitePath is the database file for the sqlite cache
	SQLitePath string `yaml:"sqlite_path"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string `yaml:"address"`

	// Password is the Redis authentication password
	Password string `yaml:"password"`

	// DB is the Redis database number
	DB int `yaml:"db"`
}

// LLMConfig holds language model configuration
type LLMConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	MaxInputChars int           `yaml:"max_input_chars"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	Timeout       time.Duration `yaml:"timeout"`
}

// SpeechConfig holds speech synthesis configuration
type SpeechConfig struct {
	// Provider is elevenlabs or google
	Provider        string  `yaml:"provider"`
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`

	// ChunkSize is the request size for providers without streaming
	ChunkSize int `yaml:"chunk_size"`
}

// PipelineConfig holds processing run configuration
type PipelineConfig struct {
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	ExtractTimeout    time.Duration `yaml:"extract_timeout"`
	SynthesizeTimeout time.Duration `yaml:"synthesize_timeout"`
	StoreTimeout      time.Duration `yaml:"store_timeout"`

	// FetchAttempts is the number of tries for a page fetch
	FetchAttempts int `yaml:"fetch_attempts"`

	// MaxConcurrentRuns caps in-flight runs; zero means unlimited
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`

	// Format is json or text
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "8000",
			RateLimitPerSecond: 10,
			RateLimitBurst:     20,
			CORSOrigins:        []string{"*"},
			ShutdownTimeout:    15 * time.Second,
		},
		Store: StoreConfig{
			Type:       "memory",
			SQLitePath: "readaloud.db",
		},
		Cache: CacheConfig{
			Type:       "memory",
			SQLitePath: "readaloud-cache.db",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		LLM: LLMConfig{
			Model:         "gpt-4o-mini",
			MaxInputChars: 8000,
			CacheTTL:      24 * time.Hour,
			Timeout:       60 * time.Second,
		},
		Speech: SpeechConfig{
			Provider:        "elevenlabs",
			VoiceID:         "21m00Tcm4TlvDq8ikWAM",
			ModelID:         "eleven_multilingual_v2",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			ChunkSize:       1000,
		},
		Pipeline: PipelineConfig{
			FetchTimeout:      30 * time.Second,
			ExtractTimeout:    60 * time.Second,
			SynthesizeTimeout: 120 * time.Second,
			StoreTimeout:      30 * time.Second,
			FetchAttempts:     1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromEnv loads configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.Server.PublicBaseURL == "" {
		cfg.Server.PublicBaseURL = "http://localhost:" + cfg.Server.Port
	}
	cfg.Server.PublicBaseURL = strings.TrimRight(cfg.Server.PublicBaseURL, "/")

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.PublicBaseURL = getEnvOrDefault("PUBLIC_BASE_URL", c.Server.PublicBaseURL)
	c.Server.RateLimitPerSecond = getEnvAsFloatOrDefault("RATE_LIMIT_RPS", c.Server.RateLimitPerSecond)
	c.Server.RateLimitBurst = getEnvAsIntOrDefault("RATE_LIMIT_BURST", c.Server.RateLimitBurst)
	c.Server.CORSOrigins = getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", c.Server.CORSOrigins)
	c.Server.ShutdownTimeout = getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Store.Type = getEnvOrDefault("STORE_TYPE", c.Store.Type)
	c.Store.SQLitePath = getEnvOrDefault("STORE_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.PostgresDSN = getEnvOrDefault("DATABASE_URL", c.Store.PostgresDSN)

	c.Cache.Type = getEnvOrDefault("CACHE_TYPE", c.Cache.Type)
	c.Cache.SQLitePath = getEnvOrDefault("CACHE_SQLITE_PATH", c.Cache.SQLitePath)

	c.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", c.Redis.Address)
	c.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsIntOrDefault("REDIS_DB", c.Redis.DB)

	c.LLM.APIKey = getEnvOrDefault("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnvOrDefault("LLM_MODEL", c.LLM.Model)
	c.LLM.MaxInputChars = getEnvAsIntOrDefault("LLM_MAX_INPUT_CHARS", c.LLM.MaxInputChars)
	c.LLM.CacheTTL = getEnvAsDurationOrDefault("LLM_CACHE_TTL", c.LLM.CacheTTL)
	c.LLM.Timeout = getEnvAsDurationOrDefault("LLM_TIMEOUT", c.LLM.Timeout)

	c.Speech.Provider = getEnvOrDefault("SPEECH_PROVIDER", c.Speech.Provider)
	c.Speech.APIKey = getEnvOrDefault("ELEVENLABS_API_KEY", c.Speech.APIKey)
	c.Speech.BaseURL = getEnvOrDefault("ELEVENLABS_BASE_URL", c.Speech.BaseURL)
	c.Speech.VoiceID = getEnvOrDefault("SPEECH_VOICE_ID", c.Speech.VoiceID)
	c.Speech.ModelID = getEnvOrDefault("SPEECH_MODEL_ID", c.Speech.ModelID)
	c.Speech.Stability = getEnvAsFloatOrDefault("SPEECH_STABILITY", c.Speech.Stability)
	c.Speech.SimilarityBoost = getEnvAsFloatOrDefault("SPEECH_SIMILARITY_BOOST", c.Speech.SimilarityBoost)
	c.Speech.ChunkSize = getEnvAsIntOrDefault("SPEECH_CHUNK_SIZE", c.Speech.ChunkSize)

	c.Pipeline.FetchTimeout = getEnvAsDurationOrDefault("FETCH_TIMEOUT", c.Pipeline.FetchTimeout)
	c.Pipeline.ExtractTimeout = getEnvAsDurationOrDefault("EXTRACT_TIMEOUT", c.Pipeline.ExtractTimeout)
	c.Pipeline.SynthesizeTimeout = getEnvAsDurationOrDefault("SYNTHESIZE_TIMEOUT", c.Pipeline.SynthesizeTimeout)
	c.Pipeline.StoreTimeout = getEnvAsDurationOrDefault("STORE_TIMEOUT", c.Pipeline.StoreTimeout)
	c.Pipeline.FetchAttempts = getEnvAsIntOrDefault("FETCH_ATTEMPTS", c.Pipeline.FetchAttempts)
	c.Pipeline.MaxConcurrentRuns = getEnvAsIntOrDefault("MAX_CONCURRENT_RUNS", c.Pipeline.MaxConcurrentRuns)

	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", c.Logging.Format)
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") or whole seconds
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("rate limit values cannot be negative")
	}

	switch c.Store.Type {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite path cannot be empty when using sqlite store")
		}
	case "redis":
		if c.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis store")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return errors.New("DATABASE_URL cannot be empty when using postgres store")
		}
	default:
		return errors.New("store type must be 'memory', 'sqlite', 'redis' or 'postgres'")
	}

	switch c.Cache.Type {
	case "memory":
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			return errors.New("sqlite path cannot be empty when using sqlite cache")
		}
	case "redis":
		if c.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis cache")
		}
	default:
		return errors.New("cache type must be 'memory', 'sqlite' or 'redis'")
	}

	if c.Speech.Provider != "elevenlabs" && c.Speech.Provider != "google" {
		return errors.New("speech provider must be 'elevenlabs' or 'google'")
	}
	if c.Speech.Stability < 0 || c.Speech.Stability > 1 {
		return errors.New("speech stability must be between 0 and 1")
	}
	if c.Speech.SimilarityBoost < 0 || c.Speech.SimilarityBoost > 1 {
		return errors.New("speech similarity boost must be between 0 and 1")
	}

	if c.Pipeline.FetchTimeout <= 0 || c.Pipeline.ExtractTimeout <= 0 ||
		c.Pipeline.SynthesizeTimeout <= 0 || c.Pipeline.StoreTimeout <= 0 {
		return errors.New("pipeline stage timeouts must be positive")
	}
	if c.Pipeline.MaxConcurrentRuns < 0 {
		return errors.New("max concurrent runs cannot be negative")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return errors.New("log format must be 'json' or 'text'")
	}

	return nil
}
