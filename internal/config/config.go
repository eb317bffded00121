// Package config loads the taskboard settings from TASKBOARD_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/messages"
)

// Config holds the web frontend configuration.
type Config struct {
	API     APIConfig
	Server  ServerConfig
	Session SessionConfig
	Redis   RedisConfig
	Login   LoginConfig
	Lang    string
}

// APIConfig holds the remote task API settings.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// SessionConfig holds browser-session cookie settings.
type SessionConfig struct {
	CookieSecure bool
	TTL          time.Duration
}

// RedisConfig holds Redis connection settings. An empty Addr selects the
// in-process KV and bus.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// LoginConfig holds the sign-in flow settings.
type LoginConfig struct {
	RedirectDelay time.Duration
	Rate          float64
	Burst         int
}

// DevAPIConfig holds the development API settings.
type DevAPIConfig struct {
	Addr        string
	JWTSecret   string //nolint:gosec // G117: JWT signing secret config
	TokenTTL    time.Duration
	CORSOrigins []string
}

// Load reads the web frontend configuration from environment variables.
func Load() (*Config, error) {
	apiTimeout, err := getEnvDuration("TASKBOARD_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TASKBOARD_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TASKBOARD_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cookieSecure, err := getEnvBool("TASKBOARD_COOKIE_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionTTL, err := getEnvDuration("TASKBOARD_SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TASKBOARD_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redirectDelay, err := getEnvDuration("TASKBOARD_LOGIN_REDIRECT_DELAY", time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	loginRate, err := getEnvFloat("TASKBOARD_LOGIN_RATE", 1)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	loginBurst, err := getEnvInt("TASKBOARD_LOGIN_BURST", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("TASKBOARD_API_URL", "http://localhost:5000"),
			Timeout: apiTimeout,
		},
		Server: ServerConfig{
			Addr:         getEnv("TASKBOARD_SERVER_ADDR", ":3000"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("TASKBOARD_CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Session: SessionConfig{
			CookieSecure: cookieSecure,
			TTL:          sessionTTL,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TASKBOARD_REDIS_ADDR", ""),
			Password: getEnv("TASKBOARD_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Login: LoginConfig{
			RedirectDelay: redirectDelay,
			Rate:          loginRate,
			Burst:         loginBurst,
		},
		Lang: getEnv("TASKBOARD_LANG", messages.LanguageEs),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TASKBOARD_API_URL must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if u.Scheme == "http" && c.Session.CookieSecure {
		log.Warn().Str("api_url", c.API.BaseURL).Msg("TASKBOARD_API_URL is plain http while cookies are secure-only")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("TASKBOARD_API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKBOARD_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("TASKBOARD_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("TASKBOARD_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}
	if c.Login.RedirectDelay < 0 {
		return fmt.Errorf("TASKBOARD_LOGIN_REDIRECT_DELAY must not be negative, got %s", c.Login.RedirectDelay)
	}
	if c.Login.Rate <= 0 {
		return fmt.Errorf("TASKBOARD_LOGIN_RATE must be positive, got %g", c.Login.Rate)
	}
	if c.Login.Burst < 1 {
		return fmt.Errorf("TASKBOARD_LOGIN_BURST must be >= 1, got %d", c.Login.Burst)
	}
	if c.Lang != messages.LanguageEs && c.Lang != messages.LanguageEn {
		return fmt.Errorf("TASKBOARD_LANG must be %q or %q, got %q", messages.LanguageEs, messages.LanguageEn, c.Lang)
	}

	return nil
}

// LoadDevAPI reads the development API configuration from environment
// variables.
func LoadDevAPI() (*DevAPIConfig, error) {
	tokenTTL, err := getEnvDuration("TASKBOARD_DEVAPI_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.LoadDevAPI: %w", err)
	}

	cfg := &DevAPIConfig{
		Addr:        getEnv("TASKBOARD_DEVAPI_ADDR", ":5000"),
		JWTSecret:   getEnv("TASKBOARD_DEVAPI_JWT_SECRET", ""),
		TokenTTL:    tokenTTL,
		CORSOrigins: getEnvList("TASKBOARD_CORS_ORIGINS", []string{"http://localhost:3000"}),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.LoadDevAPI: %w", err)
	}

	return cfg, nil
}

func (c *DevAPIConfig) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWTSecret == "" {
		return errors.New("TASKBOARD_DEVAPI_JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("TASKBOARD_DEVAPI_JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TASKBOARD_DEVAPI_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
