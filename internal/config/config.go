package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	JWTSecret       string
	MongoURI        string
	MongoDB         string
	DatabaseURL     string // optional, moves accounts to Postgres
	RedisAddr       string // optional, enables token revocation on logout
	AllowedOrigins  []string
	LogMode         string
	ShutdownTimeout time.Duration
}

const (
	defaultPort            = 8080
	defaultMongoDB         = "banknotes"
	defaultAllowedOrigins  = "http://localhost:3000"
	defaultLogMode         = "development"
	defaultShutdownTimeout = 10 * time.Second
)

var (
	ErrMissingSecret   = errors.New("must provide JWT_SECRET")
	ErrMissingMongoURI = errors.New("must provide MONGO_URI")
)

// Load reads the environment, falling back to a .env file when JWT_SECRET is
// not already exported.
func Load() (Config, error) {
	if os.Getenv("JWT_SECRET") == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		JWTSecret:       os.Getenv("JWT_SECRET"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         valueOrDefault("MONGO_DB", defaultMongoDB),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		AllowedOrigins:  splitCSV(valueOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins)),
		LogMode:         valueOrDefault("LOG_MODE", defaultLogMode),
		ShutdownTimeout: defaultShutdownTimeout,
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}
	if cfg.MongoURI == "" {
		return Config{}, ErrMissingMongoURI
	}

	port, err := parsePort("PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.Port = port

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePort(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d is out of range", port)
	}
	return port, nil
}
