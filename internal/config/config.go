package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Gemini    GeminiConfig
	Geocoding GeocodingConfig
	Uploads   UploadsConfig
	Catalog   CatalogConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// StorageConfig holds configuration of the user listing slot store
type StorageConfig struct {
	Driver  string // file, sqlite, postgres or memory
	SlotKey string // storage key of the user listing collection

	FileDir    string
	SQLitePath string

	PostgreSQL PostgreSQLConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the individual fields
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     int // seconds
	Enabled     bool
}

// GeocodingConfig holds forward-geocoding configuration
type GeocodingConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   int // seconds
	Enabled   bool
}

// UploadsConfig holds image upload limits
type UploadsConfig struct {
	MaxImageBytes int64
	PreviewTTL    time.Duration
}

// CatalogConfig points at an optional amenity catalog file
type CatalogConfig struct {
	File string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	apiKey := getEnv("GEMINI_API_KEY", getEnv("API_KEY", ""))

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "file"),
			SlotKey:    getEnv("STORAGE_SLOT_KEY", "userPropertyListings"),
			FileDir:    getEnv("STORAGE_FILE_DIR", "./data"),
			SQLitePath: getEnv("STORAGE_SQLITE_PATH", "./data/propfinder.db"),
			PostgreSQL: PostgreSQLConfig{
				DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
				Host:               getEnv("PG_HOST", "localhost"),
				Port:               getEnvAsInt("PG_PORT", 5432),
				User:               getEnv("PG_USER", "postgres"),
				Password:           getEnv("PG_PASSWORD", ""),
				Database:           getEnv("PG_DATABASE", "propfinder"),
				SSLMode:            getEnv("PG_SSLMODE", "disable"),
				MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
				MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
			},
		},
		Gemini: GeminiConfig{
			APIKey:      apiKey,
			BaseURL:     getEnv("GEMINI_BASE_URL", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Temperature: getEnvAsFloat("GEMINI_TEMPERATURE", 0),
			Timeout:     getEnvAsInt("GEMINI_TIMEOUT", 120),
			Enabled:     apiKey != "",
		},
		Geocoding: GeocodingConfig{
			BaseURL:   getEnv("GEOCODING_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODING_USER_AGENT", "propfinder/1.0"),
			Timeout:   getEnvAsInt("GEOCODING_TIMEOUT", 10),
			Enabled:   getEnvAsBool("GEOCODING_ENABLED", true),
		},
		Uploads: UploadsConfig{
			MaxImageBytes: int64(getEnvAsInt("UPLOAD_MAX_IMAGE_BYTES", 10<<20)),
			PreviewTTL:    time.Duration(getEnvAsInt("UPLOAD_PREVIEW_TTL_SECONDS", 1800)) * time.Second,
		},
		Catalog: CatalogConfig{
			File: getEnv("CATALOG_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	switch cfg.Storage.Driver {
	case "file", "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q, must be one of: file, sqlite, postgres, memory", cfg.Storage.Driver)
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	pg := c.Storage.PostgreSQL
	if pg.DSN != "" {
		return pg.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host,
		pg.Port,
		pg.User,
		pg.Password,
		pg.Database,
		pg.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid integer value for %s, using default %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid float value for %s, using default %f\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid boolean value for %s, using default %t\n", key, defaultValue)
		return defaultValue
	}
	return value
}
