// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	Media      MediaConfig
	Reconciler ReconcilerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port    int
	BaseURL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// MediaConfig holds media host settings.
// Driver selects the adapter: "remote" talks to a Cloudinary-compatible
// hosted upload API, "s3" talks to an S3-compatible object store.
type MediaConfig struct {
	Driver string

	// Remote host settings
	UploadBase   string // e.g. https://api.cloudinary.com/v1_1/<cloud>
	DeliveryBase string // e.g. https://res.cloudinary.com/<cloud>
	APIKey       string
	APISecret    string

	// S3-compatible settings
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3UseSSL        bool
	S3PublicBase    string // public URL prefix for stored objects
	S3TransformBase string // transform proxy prefix for derived thumbnails
}

// ReconcilerConfig holds orphan asset sweep settings
type ReconcilerConfig struct {
	CronSpec    string
	GracePeriod time.Duration
	Folders     []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPort, err := intEnv("DB_PORT", 0)
	if err != nil {
		return nil, err
	}
	if dbPort == 0 {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	cfg.Server.BaseURL = os.Getenv("BASE_URL")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", serverPort)
	}

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		cfg.CORS.AllowedOrigins = splitAndTrim(corsOrigins)
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	accessExpiry, err := durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.AccessTokenExpiry = accessExpiry

	refreshExpiry, err := durationEnv("JWT_REFRESH_TOKEN_EXPIRY", 168*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.RefreshTokenExpiry = refreshExpiry

	// Media host configuration
	cfg.Media.Driver = os.Getenv("MEDIA_DRIVER")
	if cfg.Media.Driver == "" {
		cfg.Media.Driver = "remote"
	}

	switch cfg.Media.Driver {
	case "remote":
		cfg.Media.UploadBase = os.Getenv("MEDIA_UPLOAD_BASE")
		if cfg.Media.UploadBase == "" {
			return nil, fmt.Errorf("MEDIA_UPLOAD_BASE is required")
		}
		cfg.Media.DeliveryBase = os.Getenv("MEDIA_DELIVERY_BASE")
		if cfg.Media.DeliveryBase == "" {
			return nil, fmt.Errorf("MEDIA_DELIVERY_BASE is required")
		}
		cfg.Media.APIKey = os.Getenv("MEDIA_API_KEY")
		cfg.Media.APISecret = os.Getenv("MEDIA_API_SECRET")
	case "s3":
		cfg.Media.S3Endpoint = os.Getenv("S3_ENDPOINT")
		if cfg.Media.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT is required")
		}
		cfg.Media.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
		cfg.Media.S3SecretKey = os.Getenv("S3_SECRET_KEY")
		cfg.Media.S3Bucket = os.Getenv("S3_BUCKET")
		if cfg.Media.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required")
		}
		cfg.Media.S3UseSSL = os.Getenv("S3_USE_SSL") != "false"
		cfg.Media.S3PublicBase = os.Getenv("S3_PUBLIC_BASE")
		cfg.Media.S3TransformBase = os.Getenv("S3_TRANSFORM_BASE")
	default:
		return nil, fmt.Errorf("invalid MEDIA_DRIVER: %s", cfg.Media.Driver)
	}

	// Redis configuration (used by the reconciler)
	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}

	redisPort, err := intEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	// Reconciler configuration
	cfg.Reconciler.CronSpec = os.Getenv("RECONCILER_CRON")
	if cfg.Reconciler.CronSpec == "" {
		cfg.Reconciler.CronSpec = "@hourly"
	}

	gracePeriod, err := durationEnv("RECONCILER_GRACE_PERIOD", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Reconciler.GracePeriod = gracePeriod

	folders := os.Getenv("RECONCILER_FOLDERS")
	if folders == "" {
		folders = "shoptok/products,shoptok/videos"
	}
	cfg.Reconciler.Folders = splitAndTrim(folders)

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// intEnv reads an integer environment variable with a default
func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// durationEnv reads a duration environment variable with a default
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// splitAndTrim splits a comma-separated list, dropping empty entries
func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
