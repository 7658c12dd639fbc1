package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-hallnav/pkg/validation"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Intake thresholds
	MinDimension             int
	MaxDimension             int
	MaxUploadBytes           int64
	ConfidenceThreshold      float64
	VarianceEpsilon          float64
	AllowContentTypeFallback bool

	// Classifier. Without a model path a static classifier answers StaticHall.
	ModelInputSize    int
	ModelPath         string
	ModelMetadataPath string
	ONNXRuntimeLib    string
	StaticHall        string
	StaticConfidence  float64

	// Model artifact source, consulted when ModelPath does not exist yet
	ModelURL              string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string
	ModelBlobName         string

	// Reference data. DATABASE_URL wins over SEED_FILE; neither means built-in halls.
	DatabaseURL      string
	SeedFile         string
	ScheduleTimezone string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Thresholds returns the intake thresholds described by the config
func (c *Config) Thresholds() validation.Thresholds {
	return validation.Thresholds{
		MinDimension:             c.MinDimension,
		MaxDimension:             c.MaxDimension,
		MaxBytes:                 c.MaxUploadBytes,
		ConfidenceThreshold:      c.ConfidenceThreshold,
		VarianceEpsilon:          c.VarianceEpsilon,
		AllowContentTypeFallback: c.AllowContentTypeFallback,
	}
}

// Location resolves ScheduleTimezone; empty means the process's local zone
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.ScheduleTimezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.ScheduleTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.ScheduleTimezone, err)
	}
	return loc, nil
}

// UsesAzure reports whether the model should be pulled from blob storage
func (c *Config) UsesAzure() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != "" &&
		c.AzureStorageContainer != "" && c.ModelBlobName != ""
}

// LoadFromEnv reads the environment, after loading a .env file if one exists.
// Variables already set in the environment take precedence over the file.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	defaults := validation.DefaultThresholds()
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 12*1024*1024), // 12MB, room for multipart overhead
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		MinDimension:             int(parseIntOrDefault("MIN_DIMENSION", int64(defaults.MinDimension))),
		MaxDimension:             int(parseIntOrDefault("MAX_DIMENSION", int64(defaults.MaxDimension))),
		MaxUploadBytes:           parseIntOrDefault("MAX_UPLOAD_BYTES", defaults.MaxBytes),
		ConfidenceThreshold:      parseFloatOrDefault("CONFIDENCE_THRESHOLD", defaults.ConfidenceThreshold),
		VarianceEpsilon:          parseFloatOrDefault("VARIANCE_EPSILON", defaults.VarianceEpsilon),
		AllowContentTypeFallback: parseBoolOrDefault("ALLOW_CONTENT_TYPE_FALLBACK", defaults.AllowContentTypeFallback),

		ModelInputSize:    int(parseIntOrDefault("MODEL_INPUT_SIZE", 224)),
		ModelPath:         os.Getenv("MODEL_PATH"),
		ModelMetadataPath: os.Getenv("MODEL_METADATA_PATH"),
		ONNXRuntimeLib:    os.Getenv("ONNXRUNTIME_LIB"),
		StaticHall:        getEnvOrDefault("STATIC_HALL", "LT1 & 2"),
		StaticConfidence:  parseFloatOrDefault("STATIC_CONFIDENCE", 0.95),

		ModelURL:              os.Getenv("MODEL_URL"),
		AzureStorageAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureStorageContainer: os.Getenv("AZURE_STORAGE_CONTAINER"),
		ModelBlobName:         os.Getenv("MODEL_BLOB_NAME"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SeedFile:         os.Getenv("SEED_FILE"),
		ScheduleTimezone: os.Getenv("SCHEDULE_TIMEZONE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config is usable
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout)
	}
	if c.ModelInputSize <= 0 {
		return fmt.Errorf("MODEL_INPUT_SIZE must be > 0 (got %d)", c.ModelInputSize)
	}
	if c.ModelPath != "" && c.ModelMetadataPath == "" {
		return fmt.Errorf("MODEL_METADATA_PATH is required when MODEL_PATH is set")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
