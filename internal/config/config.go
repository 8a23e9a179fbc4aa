// Package config loads server settings from the environment and an optional
// .env file. Real environment variables win over the file.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every server setting.
type Config struct {
	Port int

	// DBDriver is "sqlite" or "postgres".
	DBDriver    string
	DBPath      string
	DatabaseURL string
	DBMaxOpen   int

	// RedisAddr selects the Redis cache; empty uses the in-memory cache.
	RedisAddr string
	CacheTTL  time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	// RateLimit requests per RateWindow per caller. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration

	StaticPath string
}

// Load reads the configuration. envFile may be empty to skip the file.
func Load(envFile string) (*Config, error) {
	env := map[string]string{}
	if envFile != "" {
		var err error
		env, err = loadEnvFile(envFile)
		if err != nil {
			return nil, err
		}
	}
	get := func(key, fallback string) string {
		return getEnv(key, fallback, env)
	}

	cfg := &Config{
		DBDriver:    strings.ToLower(get("DB_DRIVER", "sqlite")),
		DBPath:      get("DB_PATH", "./data/debtwise.db"),
		DatabaseURL: get("DATABASE_URL", ""),
		RedisAddr:   get("REDIS_ADDR", ""),
		JWTSecret:   get("JWT_SECRET", ""),
		StaticPath:  get("STATIC_PATH", ""),
	}

	var err error
	if cfg.Port, err = parseInt("PORT", get("PORT", "8080")); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpen, err = parseInt("DB_MAX_OPEN", get("DB_MAX_OPEN", "0")); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = parseInt("RATE_LIMIT", get("RATE_LIMIT", "60")); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration("CACHE_TTL", get("CACHE_TTL", "10m")); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", get("TOKEN_TTL", "24h")); err != nil {
		return nil, err
	}
	if cfg.RateWindow, err = parseDuration("RATE_WINDOW", get("RATE_WINDOW", "1m")); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateSecret()
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive restarts")
	} else if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string, env map[string]string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := env[key]; ok && value != "" {
		return value
	}
	return fallback
}

// loadEnvFile parses KEY=VALUE lines. A missing file is not an error.
func loadEnvFile(path string) (map[string]string, error) {
	env := make(map[string]string)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return env, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' ||
			value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
		env[key] = value
	}
	return env, nil
}

func parseInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func generateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
