package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver   string `validate:"oneof=postgres sqlite"`
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWTSecret enables the write guard on mutating routes when set.
	JWTSecret string

	LLM       LLMConfig
	Embedding EmbeddingConfig

	RecommendTopK        int `validate:"gt=0"`
	ChatAllowRawFallback bool
	ChatRateLimit        int `validate:"gte=0"`

	HistoryLogPath  string
	HistoryS3Bucket string
	AWSRegion       string

	CORSOrigins []string
	LogLevel    string
	LogFormat   string `validate:"oneof=json console"`
}

// LLMConfig configures the chat-completions client.
type LLMConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration `validate:"gt=0"`
}

// EmbeddingConfig configures how text is turned into vectors.
type EmbeddingConfig struct {
	Provider   string `validate:"oneof=local openai"`
	APIURL     string
	APIKey     string
	Model      string
	Dimensions int    `validate:"gte=0"`
	Metric     string `validate:"oneof=cosine dot"`
	Cache      string `validate:"oneof=none memory redis"`
	Workers    int    `validate:"gt=0"`
}

// RedisEnabled reports whether any Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// WriteGuardEnabled reports whether mutating routes require a bearer token.
func (c *Config) WriteGuardEnabled() bool {
	return c.JWTSecret != ""
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	var src source
	switch env {
	case CI:
		src = envOnly{}
	case Development, Test:
		// A missing .env is normal outside local checkouts.
		_ = godotenv.Load()
		src = envThenSecret{dir: secretsDir()}
	case Production:
		src = secretThenEnv{dir: secretsDir()}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	cfg, err := load(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(src source) (*Config, error) {
	var errs []string
	intVal := func(key string, def int) int {
		raw := src.get(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer, got %q", key, raw))
			return def
		}
		return n
	}
	boolVal := func(key string, def bool) bool {
		raw := src.get(key)
		if raw == "" {
			return def
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a boolean, got %q", key, raw))
			return def
		}
		return b
	}
	str := func(key, def string) string {
		if v := src.get(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		ServerPort: str("SERVER_PORT", "8080"),
		ServerHost: str("SERVER_HOST", "0.0.0.0"),

		DBDriver:   strings.ToLower(str("DB_DRIVER", "postgres")),
		DBHost:     str("DB_HOST", "localhost"),
		DBPort:     str("DB_PORT", "5432"),
		DBUser:     str("DB_USER", "postgres"),
		DBPassword: src.get("DB_PASSWORD"),
		DBName:     str("DB_NAME", "pantrychef"),
		DBSSLMode:  str("DB_SSL_MODE", "disable"),
		SQLitePath: str("SQLITE_PATH", "pantrychef.db"),

		RedisURL:      src.get("REDIS_URL"),
		RedisHost:     src.get("REDIS_HOST"),
		RedisPort:     str("REDIS_PORT", "6379"),
		RedisPassword: src.get("REDIS_PASSWORD"),
		RedisDB:       intVal("REDIS_DB", 0),

		JWTSecret: src.get("JWT_SECRET"),

		LLM: LLMConfig{
			APIKey:  src.get("LLM_API_KEY"),
			APIURL:  str("LLM_API_URL", "https://api.deepseek.com/v1/chat/completions"),
			Model:   str("LLM_MODEL", "deepseek-chat"),
			Timeout: time.Duration(intVal("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:   strings.ToLower(str("EMBEDDING_PROVIDER", "local")),
			APIURL:     src.get("EMBEDDING_API_URL"),
			APIKey:     src.get("EMBEDDING_API_KEY"),
			Model:      str("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: intVal("EMBEDDING_DIMENSIONS", 384),
			Metric:     strings.ToLower(str("SIMILARITY_METRIC", "cosine")),
			Cache:      strings.ToLower(str("EMBEDDING_CACHE", "memory")),
			Workers:    intVal("EMBEDDING_WORKERS", 8),
		},

		RecommendTopK:        intVal("RECOMMEND_TOP_K", 3),
		ChatAllowRawFallback: boolVal("CHAT_ALLOW_RAW_FALLBACK", false),
		ChatRateLimit:        intVal("CHAT_RATE_LIMIT", 30),

		HistoryLogPath:  str("HISTORY_LOG_PATH", "my_fav_recipes.txt"),
		HistoryS3Bucket: src.get("HISTORY_S3_BUCKET"),
		AWSRegion:       str("AWS_REGION", "us-east-1"),

		CORSOrigins: splitList(str("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:    str("LOG_LEVEL", "info"),
		LogFormat:   strings.ToLower(str("LOG_FORMAT", "json")),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// source resolves one configuration key.
type source interface {
	get(key string) string
}

// envOnly reads environment variables only, as CI runners inject everything
// that way.
type envOnly struct{}

func (envOnly) get(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// envThenSecret prefers environment variables and falls back to Docker
// secrets.
type envThenSecret struct{ dir string }

func (s envThenSecret) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return readSecretFrom(s.dir, secretName(key))
}

// secretThenEnv prefers Docker secrets, which is how production deploys
// credentials.
type secretThenEnv struct{ dir string }

func (s secretThenEnv) get(key string) string {
	if v := readSecretFrom(s.dir, secretName(key)); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(key))
}

// secretName maps DB_PASSWORD to db_password.
func secretName(key string) string {
	return strings.ToLower(key)
}

func secretsDir() string {
	if dir := os.Getenv("SECRETS_DIR"); dir != "" {
		return dir
	}
	return "/run/secrets"
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	return readSecretFrom(secretsDir(), name)
}

func readSecretFrom(dir, name string) string {
	if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
