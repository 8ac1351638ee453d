package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8090 || cfg.LLM.Provider != "openai" || cfg.RateLimit.PerMinute != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Server.Addr() != "0.0.0.0:8090" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
server:
  port: 9000
  request_timeout: 45s
  cors_origins: ["https://app.example.com"]
database:
  path: /tmp/file.db
llm:
  provider: anthropic
  attempts: 3
credentials:
  serpapi_key: from-file
  reddit_client_id: file-id
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("SERPAPI_KEY", "from-env")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("REDIS_CACHE_TTL", "2h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("env should override file port, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 45*time.Second || cfg.Database.Path != "/tmp/file.db" {
		t.Fatalf("file values lost: %+v", cfg.Server)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.Attempts != 3 {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Credentials.SerpAPIKey != "from-env" || cfg.Credentials.RedditClientID != "file-id" {
		t.Fatalf("unexpected credentials %+v", cfg.Credentials)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CORSOrigins)
	}
	if cfg.Redis.CacheTTL != 2*time.Hour {
		t.Fatalf("unexpected cache ttl %s", cfg.Redis.CacheTTL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":  "70000",
		"LLM_PROVIDER": "cohere",
		"LLM_ATTEMPTS": "0",
		"LOG_LEVEL":    "chatty",
		"LOG_FORMAT":   "xml",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(""); err == nil {
				t.Fatalf("expected %s=%s to be rejected", key, val)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing config file error")
	}
}

func TestNewLogger(t *testing.T) {
	l := NewLogger(LoggingConfig{Level: "debug", Format: "text"})
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter, got %T", l.Formatter)
	}
	l = NewLogger(LoggingConfig{Level: "nonsense"})
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", l.Formatter)
	}
}
