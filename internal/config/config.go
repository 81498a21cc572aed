package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	FrontendDir  string

	// AdminKeyHash is a bcrypt hash of the admin API key. When empty the
	// admin surface is open (local development).
	AdminKeyHash string

	// AlertURLs are shoutrrr notification URLs that receive escalated alerts.
	AlertURLs []string

	// Rate limiting for the protected /api surface.
	RateLimitMax       int
	RateLimitWindowMin int
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:        getEnv("ARGUS_ENV", "development"),
		HTTPPort:           getEnv("ARGUS_HTTP_PORT", "8080"),
		DatabasePath:       getEnv("ARGUS_DB_PATH", filepath.Join("data", "argus.db")),
		FrontendDir:        getEnv("ARGUS_FRONTEND_DIR", filepath.Clean(filepath.Join("..", "frontend", "dist"))),
		AdminKeyHash:       getEnv("ARGUS_ADMIN_KEY_HASH", ""),
		AlertURLs:          splitList(getEnv("ARGUS_ALERT_URLS", "")),
		RateLimitMax:       getEnvInt("ARGUS_RATE_LIMIT_MAX", 100),
		RateLimitWindowMin: getEnvInt("ARGUS_RATE_LIMIT_WINDOW_MIN", 15),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}

	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
