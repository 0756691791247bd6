package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting of the API process
type Config struct {
	Env  string
	Port int

	DatabaseURI  string
	DatabaseName string

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration

	Email EmailConfig
	Redis RedisConfig
	Minio MinioConfig

	RateLimitMax    int
	RateLimitWindow time.Duration

	AuditDatabaseURL string
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// IsProduction reports whether errors must be sanitized before reaching clients
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads an optional dotenv file and then the process environment.
// Variables already present in the environment win over the file.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN: could not load %s: %v", path, err)
		}
	}

	cfg := &Config{
		Env:          getEnv("NODE_ENV", EnvDevelopment),
		DatabaseName: getEnv("DATABASE_NAME", "natours"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Email: EmailConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Username: os.Getenv("EMAIL_USERNAME"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			From:     getEnv("EMAIL_FROM", "Natours <hello@natours.io>"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			Bucket:    getEnv("MINIO_BUCKET", "natours-users"),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
		},
		AuditDatabaseURL: os.Getenv("AUDIT_DATABASE_URL"),
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("NODE_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8000); err != nil {
		return nil, err
	}
	if cfg.Email.Port, err = getInt("EMAIL_PORT", 25); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1h")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.JWTExpiresIn, err = ParseDuration(getEnv("JWT_EXPIRES_IN", "90d")); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	cookieDays, err := getInt("JWT_COOKIE_EXPIRES_IN", 90)
	if err != nil {
		return nil, err
	}
	cfg.JWTCookieExpiresIn = time.Duration(cookieDays) * 24 * time.Hour

	database := os.Getenv("DATABASE")
	if database == "" {
		database = getEnv("DATABASE_LOCAL", "mongodb://localhost:27017")
	}
	cfg.DatabaseURI = strings.Replace(database, "<PASSWORD>", os.Getenv("DATABASE_PASSWORD"), 1)

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
		}
		cfg.JWTSecret = random.String(32) // development only
		log.Printf("WARNING: Using generated JWT secret")
	}

	return cfg, nil
}

// ParseDuration accepts Go durations plus a day suffix ("90d") as used by JWT_EXPIRES_IN
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", value)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
