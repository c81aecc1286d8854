package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// BuildProduction is the BUILD_TYPE value selecting the production store.
const BuildProduction = "production"

// Config holds all configuration for the application
type Config struct {
	BuildType string
	LogLevel  string

	Server struct {
		Port    string
		GinMode string
	}

	API struct {
		BaseURL string
	}

	Persist struct {
		Storage string
	}

	Session struct {
		MaxIdle time.Duration
	}

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Minio struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}

	Tarantool struct {
		Address       string
		User          string
		Password      string
		MaxReconnects int
	}

	CORS struct {
		AllowOrigins string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.BuildType = getEnv("BUILD_TYPE", "development")
	config.LogLevel = getEnv("LOG_LEVEL", "info")

	config.Server.Port = getEnv("PORT", "3000")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")

	config.API.BaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:4000"), "/")

	config.Persist.Storage = getEnv("PERSIST_STORAGE", "memory")

	config.Session.MaxIdle = time.Duration(getEnvAsInt64("SESSION_MAX_IDLE_MINUTES", 60)) * time.Minute

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "sealedvote")
	config.DB.Password = getEnv("DB_PASSWORD", "sealedvote_password")
	config.DB.Name = getEnv("DB_NAME", "sealedvote_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Minio.Endpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", "minioadmin")
	config.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", "minioadmin")
	config.Minio.Bucket = getEnv("MINIO_BUCKET", "sealed-vote-state")
	config.Minio.UseSSL = getEnvAsBool("MINIO_USE_SSL", false)

	config.Tarantool.Address = getEnv("TT_ADDRESS", "127.0.0.1:3301")
	config.Tarantool.User = getEnv("TT_USER", "guest")
	config.Tarantool.Password = getEnv("TT_PASSWORD", "")
	config.Tarantool.MaxReconnects = int(getEnvAsInt64("TT_MAX_RECONNECTS", 5))

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")

	return config
}

// IsProduction reports whether the production store configuration is selected
func (c *Config) IsProduction() bool {
	return c.BuildType == BuildProduction
}

// AllowedOrigins splits CORS_ALLOW_ORIGINS into a list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORS.AllowOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
