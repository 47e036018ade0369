package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
	Archive  ArchiveConfig
}

// DatabaseConfig holds database-related configuration for the run sink.
// The pipeline itself never touches the database; the caller persists runs.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
	TessdataDir   string
}

// PipelineConfig holds coordinator-related configuration
type PipelineConfig struct {
	Tier                string
	MaxWorkers          int
	MaxRecognition      int
	DocumentTimeout     time.Duration
	ValidationThreshold float32
}

// ArchiveConfig holds the local task archive configuration
type ArchiveConfig struct {
	Path   string
	MaxAge time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 10),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		Pipeline: PipelineConfig{
			Tier:                getEnv("SERVICE_TIER", "standard"),
			MaxWorkers:          getEnvAsInt("PIPELINE_MAX_WORKERS", 2),
			MaxRecognition:      getEnvAsInt("PIPELINE_MAX_RECOGNITION", 2),
			DocumentTimeout:     getEnvAsDuration("PIPELINE_DOC_TIMEOUT", 2*time.Minute),
			ValidationThreshold: getEnvAsFloat32("VALIDATION_THRESHOLD", 0.7),
		},
		Archive: ArchiveConfig{
			Path:   getEnv("TASK_ARCHIVE_PATH", "./tasks.db"),
			MaxAge: getEnvAsDuration("TASK_ARCHIVE_MAX_AGE", 30*24*time.Hour),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Pipeline.MaxWorkers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_MAX_WORKERS must be positive", ErrInvalidInput)
	}
	if c.Pipeline.MaxRecognition <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_MAX_RECOGNITION must be positive", ErrInvalidInput)
	}
	if c.Pipeline.ValidationThreshold <= 0 || c.Pipeline.ValidationThreshold >= 1 {
		return NewAppError("CONFIG_ERROR", "VALIDATION_THRESHOLD must be in (0,1)", ErrInvalidInput)
	}
	if c.OCR.MaxPages <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MAX_PAGES must be positive", ErrInvalidInput)
	}
	return nil
}
