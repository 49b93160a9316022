package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIURL is the hosted EduPost backend.
const DefaultAPIURL = "https://edupost-latest.onrender.com"

// DefaultTokenKey namespaces the persisted bearer token.
const DefaultTokenKey = "@edupost/token"

// Token store backends accepted by TOKEN_STORE.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds client configuration sourced from env vars.
type Config struct {
	APIURL        string
	HTTPTimeout   time.Duration
	TokenBackend  string
	TokenKey      string
	TokenFile     string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ServerConfig holds devserver configuration sourced from env vars.
type ServerConfig struct {
	Port        string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string
}

// Load reads client configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		APIURL:        strings.TrimRight(fallback(os.Getenv("EDUPOST_API_URL"), DefaultAPIURL), "/"),
		TokenBackend:  strings.ToLower(fallback(os.Getenv("TOKEN_STORE"), BackendFile)),
		TokenKey:      fallback(os.Getenv("TOKEN_KEY"), DefaultTokenKey),
		TokenFile:     fallback(os.Getenv("TOKEN_FILE"), defaultTokenFile()),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:     fallback(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	cfg.HTTPTimeout = 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("EDUPOST_HTTP_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid EDUPOST_HTTP_TIMEOUT %q", raw)
		}
		cfg.HTTPTimeout = d
	}
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_DB %q", raw)
		}
		cfg.RedisDB = n
	}

	switch cfg.TokenBackend {
	case BackendFile, BackendMemory, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required when TOKEN_STORE=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown TOKEN_STORE %q", cfg.TokenBackend)
	}

	return cfg, nil
}

// LoadServer reads devserver configuration from the environment.
func LoadServer() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "edupost-devserver"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	if cfg.JWTSecret == "" {
		return ServerConfig{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the devserver to bind to.
func (c ServerConfig) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "edupost", "state.json")
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
