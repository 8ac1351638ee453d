package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joelkehle/idea-validation/internal/validation"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the idea validation service.
type Config struct {
	Server      ServerConfig           `yaml:"server"`
	Database    DatabaseConfig         `yaml:"database"`
	Redis       RedisConfig            `yaml:"redis"`
	LLM         LLMConfig              `yaml:"llm"`
	RateLimit   RateLimitConfig        `yaml:"rate_limit"`
	Telemetry   TelemetryConfig        `yaml:"telemetry"`
	Logging     LoggingConfig          `yaml:"logging"`
	Credentials validation.Credentials `yaml:"credentials"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig is optional; an empty address disables the lookup cache.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Attempts int    `yaml:"attempts"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8090,
			CORSOrigins:    []string{"*"},
			RequestTimeout: 90 * time.Second,
			SweepInterval:  time.Hour,
		},
		Database:  DatabaseConfig{Path: "idea-validation.db"},
		Redis:     RedisConfig{CacheTTL: 24 * time.Hour},
		LLM:       LLMConfig{Provider: "openai", Attempts: 2},
		RateLimit: RateLimitConfig{PerMinute: 10, Burst: 3},
		Telemetry: TelemetryConfig{ServiceName: "idea-validator"},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides. Environment variables win over file values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.CORSOrigins = getEnvAsList("CORS_ORIGINS", c.Server.CORSOrigins)
	c.Server.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.SweepInterval = getEnvAsDuration("SWEEP_INTERVAL", c.Server.SweepInterval)

	c.Database.Path = getEnv("DATABASE_PATH", c.Database.Path)

	c.Redis.Address = getEnv("REDIS_ADDRESS", c.Redis.Address)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.CacheTTL = getEnvAsDuration("REDIS_CACHE_TTL", c.Redis.CacheTTL)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.Attempts = getEnvAsInt("LLM_ATTEMPTS", c.LLM.Attempts)

	c.RateLimit.PerMinute = getEnvAsInt("RATE_LIMIT_PER_MINUTE", c.RateLimit.PerMinute)
	c.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.Burst)

	c.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	cr := &c.Credentials
	cr.OpenAIKey = getEnv("OPENAI_API_KEY", cr.OpenAIKey)
	cr.AnthropicKey = getEnv("ANTHROPIC_API_KEY", cr.AnthropicKey)
	cr.SerpAPIKey = getEnv("SERPAPI_KEY", cr.SerpAPIKey)
	cr.ProductHuntToken = getEnv("PRODUCTHUNT_TOKEN", cr.ProductHuntToken)
	cr.GitHubToken = getEnv("GITHUB_TOKEN", cr.GitHubToken)
	cr.WhoisXMLKey = getEnv("WHOISXML_API_KEY", cr.WhoisXMLKey)
	cr.RedditClientID = getEnv("REDDIT_CLIENT_ID", cr.RedditClientID)
	cr.RedditClientSecret = getEnv("REDDIT_CLIENT_SECRET", cr.RedditClientSecret)
	cr.RedditUserAgent = getEnv("REDDIT_USER_AGENT", cr.RedditUserAgent)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path is required")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.Attempts < 1 || c.LLM.Attempts > 5 {
		return fmt.Errorf("llm attempts must be between 1 and 5, got %d", c.LLM.Attempts)
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.RateLimit.PerMinute > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("rate limit burst must be positive when limiting is enabled")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Logging.Format)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
