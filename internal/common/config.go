package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Parser   ParserConfig
	Storage  StorageConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftotext        string
	Pdftoppm         string
	Tesseract        string
	TesseractLang    string
	DPI              int
	MaxPages         int
	WebhookURL       string
	WebhookTimeout   time.Duration
	PreprocessImages bool
}

// ParserConfig holds invoice field extraction configuration
type ParserConfig struct {
	ReviewThreshold float64
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	DocumentDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		OCR: OCRConfig{
			Pdftotext:        getEnv("OCR_PDFTOTEXT", "pdftotext"),
			Pdftoppm:         getEnv("OCR_PDFTOPPM", "pdftoppm"),
			Tesseract:        getEnv("OCR_TESSERACT", "tesseract"),
			TesseractLang:    getEnv("OCR_LANG", "eng+fra"),
			DPI:              getEnvAsInt("OCR_DPI", 300),
			MaxPages:         getEnvAsInt("OCR_MAX_PAGES", 0),
			WebhookURL:       getEnv("OCR_WEBHOOK_URL", ""),
			WebhookTimeout:   getEnvAsDuration("OCR_WEBHOOK_TIMEOUT", 45*time.Second),
			PreprocessImages: getEnvAsBool("OCR_PREPROCESS_IMAGES", true),
		},
		Parser: ParserConfig{
			ReviewThreshold: getEnvAsFloat64("PARSER_REVIEW_THRESHOLD", 0.70),
		},
		Storage: StorageConfig{
			DocumentDir: getEnv("DOCUMENT_DIR", "./data/documents"),
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Parser.ReviewThreshold <= 0 || c.Parser.ReviewThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "PARSER_REVIEW_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	return nil
}
