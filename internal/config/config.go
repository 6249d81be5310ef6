package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Rate-limit storage backends.
const (
	RateLimitBackendGorm   = "gorm"
	RateLimitBackendRedis  = "redis"
	RateLimitBackendMemory = "memory"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	Debug        bool
	LogFile      string

	Auth      AuthConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// SecurityConfig configures the WAF, CORS and maintenance.
type SecurityConfig struct {
	CORSOrigins      []string
	TrustedIPs       []string
	// TrustedProxies are the peers whose X-Forwarded-For is believed. Empty
	// trusts none, so the socket address is the client.
	TrustedProxies   []string
	WAFRulesFile     string
	WAFRetentionDays int
	CleanupSchedule  string
	AlertURLs        []string
	MaxBodyBytes     int64
	// WebhookSecrets maps a webhook provider to its HMAC signing secret.
	WebhookSecrets map[string]string
}

// RateLimitConfig selects the rate-limit store.
type RateLimitConfig struct {
	Backend  string
	RedisURL string
}

// IsDevelopment reports the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads env vars, after an optional .env file, and falls back to defaults
// so the server can boot with zero configuration.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Environment:  getEnv("CSF_ENV", "development"),
		HTTPPort:     getEnv("CSF_HTTP_PORT", "8080"),
		DatabasePath: getEnv("CSF_DB_PATH", filepath.Join("data", "csf.db")),
		Debug:        getEnvBool("CSF_DEBUG", false),
		LogFile:      getEnv("CSF_LOG_FILE", filepath.Join("data", "logs", "csf.log")),
		Auth: AuthConfig{
			JWTSecret: getEnv("CSF_JWT_SECRET", ""),
			Issuer:    getEnv("CSF_JWT_ISSUER", ""),
			Audience:  getEnv("CSF_JWT_AUDIENCE", "authenticated"),
		},
		Security: SecurityConfig{
			CORSOrigins:      getEnvList("CSF_CORS_ORIGINS", []string{"*"}),
			TrustedIPs:       getEnvList("CSF_TRUSTED_IPS", nil),
			TrustedProxies:   getEnvList("CSF_TRUSTED_PROXIES", nil),
			WAFRulesFile:     getEnv("CSF_WAF_RULES_FILE", ""),
			WAFRetentionDays: getEnvInt("CSF_WAF_RETENTION_DAYS", 30),
			CleanupSchedule:  getEnv("CSF_CLEANUP_SCHEDULE", "*/15 * * * *"),
			AlertURLs:        getEnvList("CSF_ALERT_URLS", nil),
			MaxBodyBytes:     int64(getEnvInt("CSF_MAX_BODY_BYTES", 1<<20)),
			WebhookSecrets:   getEnvMap("CSF_WEBHOOK_SECRETS"),
		},
		RateLimit: RateLimitConfig{
			Backend:  strings.ToLower(getEnv("CSF_RATE_LIMIT_BACKEND", RateLimitBackendGorm)),
			RedisURL: getEnv("CSF_REDIS_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.RateLimit.Backend {
	case RateLimitBackendGorm, RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.RateLimit.RedisURL == "" {
			return errors.New("CSF_REDIS_URL is required when CSF_RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("CSF_JWT_SECRET is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvMap parses "a=1,b=2". Entries without '=' are ignored.
func getEnvMap(key string) map[string]string {
	out := map[string]string{}
	for _, p := range getEnvList(key, nil) {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}
