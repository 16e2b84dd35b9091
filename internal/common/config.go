package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Upload   UploadConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN string
}

// UploadConfig holds upload/file-validation configuration
type UploadConfig struct {
	Dir             string
	MaxUploadSizeMB float64
}

// OCRConfig holds text-extraction configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	DPI           int
	PSM           int
	MaxPages      int
	LayoutCommand string // optional layout-aware backend command, e.g. "docling"
	UseVisionLLM  bool
}

// LLMConfig holds language-model configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds pipeline behavior configuration
type PipelineConfig struct {
	PromptFile    string // optional extraction prompt override
	MaxRetries    int
	MinConfidence float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN: getEnv("DB_URL", "invoiceguard.db"),
		},
		Upload: UploadConfig{
			Dir:             getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadSizeMB: getEnvAsFloat64("MAX_UPLOAD_SIZE_MB", 10.0),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 200),
			PSM:           getEnvAsInt("OCR_PSM", 3),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			LayoutCommand: getEnv("LAYOUT_BACKEND_CMD", ""),
			UseVisionLLM:  getEnvAsBool("OCR_USE_VISION_LLM", false),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:       getEnv("OLLAMA_MODEL", "llama3.2:8b"),
			VisionModel: getEnv("OLLAMA_VISION_MODEL", ""),
			Temperature: getEnvAsFloat32("OLLAMA_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
		Pipeline: PipelineConfig{
			PromptFile:    getEnv("EXTRACTION_PROMPT_FILE", ""),
			MaxRetries:    getEnvAsInt("PIPELINE_MAX_RETRIES", 2),
			MinConfidence: getEnvAsFloat64("PIPELINE_MIN_CONFIDENCE", 0.60),
		},
	}
}

// Validate validates the loaded configuration. Construction-time problems
// are the only errors the pipeline wiring is allowed to raise.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_BASE_URL is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_MODEL is required", ErrInvalidInput)
	}
	if c.OCR.UseVisionLLM && c.LLM.VisionModel == "" {
		return NewAppError("CONFIG_ERROR", "OLLAMA_VISION_MODEL is required when OCR_USE_VISION_LLM is set", ErrInvalidInput)
	}
	if c.Pipeline.MaxRetries < 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_MAX_RETRIES must be >= 0", ErrInvalidInput)
	}
	return nil
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
