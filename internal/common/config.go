package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Classifier ClassifierConfig
	Extraction ExtractionConfig
	LLM        LLMConfig
	Export     ExportConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ClassifierConfig holds page-classification configuration
type ClassifierConfig struct {
	MinTextLength     int
	ScoreThreshold    float64
	Workers           int
	ParallelThreshold int
}

// ExtractionConfig holds extraction-orchestrator configuration
type ExtractionConfig struct {
	TopPages    int
	Concurrency int
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// LLMConfig holds vision-extraction client configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ExportConfig holds report-export configuration
type ExportConfig struct {
	Format   string // "xlsx" or "csv"
	MaxYears int
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
		Classifier: ClassifierConfig{
			MinTextLength:     getEnvAsInt("CLASSIFIER_MIN_TEXT_LEN", 20),
			ScoreThreshold:    getEnvAsFloat64("CLASSIFIER_SCORE_THRESHOLD", 3.0),
			Workers:           getEnvAsInt("CLASSIFIER_WORKERS", 4),
			ParallelThreshold: getEnvAsInt("CLASSIFIER_PARALLEL_THRESHOLD", 8),
		},
		Extraction: ExtractionConfig{
			// K=3: the batch transcription path only ever needed the top three
			// candidate pages per statement run; raise via env for exploratory use.
			TopPages:    getEnvAsInt("TRANSCRIBE_TOP_PAGES", 3),
			Concurrency: getEnvAsInt("TRANSCRIBE_CONCURRENCY", 5),
			MaxRetries:  getEnvAsInt("TRANSCRIBE_MAX_RETRIES", 3),
			BaseDelay:   getEnvAsDuration("TRANSCRIBE_RETRY_BASE_DELAY", 1*time.Second),
			MaxDelay:    getEnvAsDuration("TRANSCRIBE_RETRY_MAX_DELAY", 60*time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
		},
		Export: ExportConfig{
			Format:   getEnv("EXPORT_FORMAT", "xlsx"),
			MaxYears: getEnvAsInt("EXPORT_MAX_YEARS", 4),
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Extraction.TopPages <= 0 {
		return NewAppError("CONFIG_ERROR", "TRANSCRIBE_TOP_PAGES must be positive", ErrInvalidInput)
	}
	if c.Extraction.Concurrency <= 0 {
		return NewAppError("CONFIG_ERROR", "TRANSCRIBE_CONCURRENCY must be positive", ErrInvalidInput)
	}
	return nil
}
