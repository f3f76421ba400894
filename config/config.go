package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Port             string
	MongoURI         string
	MongoDB          string
	JWTSecret        string
	TokenTTL         time.Duration
	RequestTimeout   time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CategoryCacheTTL time.Duration
	PostmarkToken    string
	EmailSender      string
	LogLevel         string
	LogFormat        string
	AdminEmails      []string
}

// ErrMissingSecret is returned when JWT_SECRET is not set.
var ErrMissingSecret = errors.New("JWT_SECRET is not set")

// Load reads a .env file if present, then resolves every key from the
// environment with defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8000")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "ecommerce")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", time.Hour)
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATEGORY_CACHE_TTL", 5*time.Minute)
	v.SetDefault("POSTMARK_API_TOKEN", "")
	v.SetDefault("EMAIL_SENDER", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("ADMIN_EMAILS", "")
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDB:          v.GetString("MONGO_DB"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		CategoryCacheTTL: v.GetDuration("CATEGORY_CACHE_TTL"),
		PostmarkToken:    v.GetString("POSTMARK_API_TOKEN"),
		EmailSender:      v.GetString("EMAIL_SENDER"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		AdminEmails:      splitList(v.GetString("ADMIN_EMAILS")),
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return cfg, nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
