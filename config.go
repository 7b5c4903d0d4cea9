package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all environment-sourced settings, loaded and validated once
// at process start.
type Config struct {
	Env              string // development|test|production
	Port             int
	DBDSN            string
	AccessTokenPEM   string // RSA private key, PEM
	RefreshTokenPEM  string // RSA private key, PEM
	AccessTokenLife  time.Duration
	RefreshTokenLife time.Duration
	BcryptRounds     int
	MaxFileSize      int64
	UploadDir        string
	AllowedOrigins   []string
	RateLimitWindow  time.Duration
	RateLimitMax     int
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		Env:              envOr("APP_ENV", "development"),
		DBDSN:            os.Getenv("DB_DSN"),
		AccessTokenPEM:   unescapePEM(os.Getenv("ACCESS_TOKEN_SECRET")),
		RefreshTokenPEM:  unescapePEM(os.Getenv("REFRESH_TOKEN_SECRET")),
		UploadDir:        envOr("UPLOAD_DIR", "uploads"),
		AllowedOrigins:   splitList(envOr("ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	switch cfg.Env {
	case "development", "test", "production":
	default:
		return nil, fmt.Errorf("APP_ENV must be development, test or production, got %q", cfg.Env)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.AccessTokenPEM == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenPEM == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}

	var err error
	if cfg.Port, err = envInt("PORT", 3000); err != nil {
		return nil, err
	}
	accessLife, err := envInt("ACCESS_TOKEN_LIFE", 900)
	if err != nil {
		return nil, err
	}
	refreshLife, err := envInt("REFRESH_TOKEN_LIFE", 604800)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenLife = time.Duration(accessLife) * time.Second
	cfg.RefreshTokenLife = time.Duration(refreshLife) * time.Second
	if cfg.BcryptRounds, err = envInt("BCRYPT_ROUNDS", 12); err != nil {
		return nil, err
	}
	maxFile, err := envInt("MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = int64(maxFile)
	windowMS, err := envInt("RATE_LIMIT_WINDOW_MS", 900000)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(windowMS) * time.Millisecond
	if cfg.RateLimitMax, err = envInt("RATE_LIMIT_MAX_REQUESTS", 100); err != nil {
		return nil, err
	}
	// the limiter divides the window by the request count at startup
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_MS must be positive, got %d", windowMS)
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", cfg.RateLimitMax)
	}
	return cfg, nil
}

// unescapePEM turns literal \n sequences into real newlines. Keys supplied
// through single-line env files arrive escaped; this must run exactly once.
func unescapePEM(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
