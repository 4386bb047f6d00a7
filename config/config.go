// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// ErrMissingSecret is returned in production when no signing secret is configured.
var ErrMissingSecret = errors.New("JWT_SECRET must be set in production")

// Config holds every runtime setting of the service.
type Config struct {
	Env      string
	HTTPAddr string

	DB DBConfig

	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int

	CORSAllowedOrigins string

	Redis RedisConfig

	ShutdownTimeout time.Duration
}

// DBConfig selects and configures the task and user store.
type DBConfig struct {
	Driver        string
	Path          string
	DSN           string
	MongoURI      string
	MongoDatabase string
	Debug         bool
}

// RedisConfig configures the optional user lookup cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] Warning: could not read .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":3000"),
		DB: DBConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:          getEnv("DB_PATH", "taskflow.db"),
			DSN:           getEnv("DATABASE_URL", ""),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "taskflow"),
			Debug:         getEnvBool("DB_DEBUG", false),
		},
		JWTSecret:          getEnv("JWT_SECRET", os.Getenv("SECRET_KEY")),
		JWTIssuer:          getEnv("JWT_ISSUER", "taskflow"),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 48*time.Hour),
		BcryptCost:         getEnvInt("BCRYPT_COST", 12),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("USER_CACHE_TTL", 5*time.Minute),
		},
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverMongo:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("[config] Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("[config] Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("[config] Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}
