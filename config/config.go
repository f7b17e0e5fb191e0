package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Annany2002/datalens-backend/internal/logger"
	"github.com/joho/godotenv"
)

var (
	customLog = logger.NewLogger()
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

// Config holds application configuration values
type Config struct {
	ServerPort string

	StoreDriver         string
	MetadataDbDir       string
	MetadataDbFile      string
	DefaultDatabasePath string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	QueryTimeout   time.Duration
	SchemaCacheTTL time.Duration

	CORSAllowedOrigins []string
	RateLimitPerMinute int

	AuthRequired  bool
	JWTSecret     string
	JWTExpiration time.Duration
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		ServerPort:          strings.TrimPrefix(getEnv("SERVER_PORT", "8080"), ":"),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMemory)),
		MetadataDbDir:       getEnv("METADATA_DB_DIR", "data"),
		MetadataDbFile:      getEnv("METADATA_DB_FILE", "metadata.db"),
		DefaultDatabasePath: getEnv("DEFAULT_DATABASE_PATH", "./data/main.db"),
		LLMAPIKey:           getEnv("OPENAI_API_KEY", ""),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:            getEnv("LLM_MODEL", "gpt-5"),
		LLMTimeout:          getSeconds("LLM_TIMEOUT_SECONDS", 60),
		QueryTimeout:        getSeconds("QUERY_TIMEOUT_SECONDS", 30),
		SchemaCacheTTL:      getSeconds("SCHEMA_CACHE_TTL_SECONDS", 300),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute:  getInt("RATE_LIMIT_PER_MINUTE", 0),
		AuthRequired:        getBool("AUTH_REQUIRED", false),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpiration:       time.Hour * time.Duration(getInt("JWT_EXPIRATION_HOURS", 24)),
	}

	if cfg.StoreDriver != StoreDriverMemory && cfg.StoreDriver != StoreDriverSQLite {
		return nil, errors.New("STORE_DRIVER must be 'memory' or 'sqlite'")
	}

	if cfg.JWTSecret == "" {
		if cfg.AuthRequired {
			return nil, errors.New("JWT_SECRET environment variable must be set when AUTH_REQUIRED is true")
		}
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		customLog.Warnln("JWT_SECRET not set; using a random per-process secret. Tokens will not survive a restart.")
		cfg.JWTSecret = secret
	}
	if cfg.JWTExpiration <= 0 {
		cfg.JWTExpiration = 24 * time.Hour
	}

	if cfg.LLMAPIKey == "" {
		customLog.Warnln("OPENAI_API_KEY is not set; translation and validation calls will fail.")
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, Store: %s, Model: %s", cfg.ServerPort, cfg.StoreDriver, cfg.LLMModel)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		customLog.Warnf("Invalid %s '%s'. Using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return n
}

func getSeconds(key string, fallback int) time.Duration {
	n := getInt(key, fallback)
	if n == 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		customLog.Warnf("Invalid %s '%s'. Using default %v.", key, raw, fallback)
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New("failed to generate JWT secret")
	}
	return hex.EncodeToString(buf), nil
}
