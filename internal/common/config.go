package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Data     DataConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DataConfig holds persistence-related configuration
type DataConfig struct {
	Backend    string // "json" or "sqlite"
	Dir        string // directory for cards.json / review-queue.json / sets.json
	SQLitePath string
	ImagesRoot string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string // auto | ollama-only | hybrid | tesseract-only | none
	Tesseract     string
	TessdataDir   string
	OllamaBaseURL string
	OllamaModel   string
	OllamaTimeout time.Duration
	OllamaRetries int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Command     string // external model CLI
	Model       string
	Timeout     time.Duration // per-attempt wall clock
	KillGrace   time.Duration // SIGTERM -> SIGKILL grace
	MaxAttempts int
}

// PipelineConfig holds thresholds and behavior flags for the card pipeline.
// Penalty coefficients are tunable parameters, not load-bearing contracts.
type PipelineConfig struct {
	MinConfidence       float64
	Workers             int
	LexiconCachePath    string
	PenaltyLLMMissing   float64
	PenaltyOCRMissing   float64
	PenaltyNoVision     float64
	PenaltyTypeConflict float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Data: DataConfig{
			Backend:    getEnv("CARDSCAN_DB", "json"),
			Dir:        getEnv("CARDSCAN_DATA_DIR", "./data"),
			SQLitePath: getEnv("CARDSCAN_SQLITE_PATH", "./data/cardscan.db"),
			ImagesRoot: getEnv("CARDSCAN_IMAGES_ROOT", "./images"),
		},
		OCR: OCRConfig{
			Engine:        getEnv("CARDSCAN_OCR_ENGINE", "auto"),
			Tesseract:     getEnv("CARDSCAN_TESSERACT", "tesseract"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			OllamaBaseURL: getEnv("CARDSCAN_OLLAMA_URL", "http://127.0.0.1:11434"),
			OllamaModel:   getEnv("CARDSCAN_OLLAMA_MODEL", "llava"),
			OllamaTimeout: getEnvAsDuration("CARDSCAN_OLLAMA_TIMEOUT", 60*time.Second),
			OllamaRetries: getEnvAsInt("CARDSCAN_OLLAMA_RETRIES", 3),
		},
		LLM: LLMConfig{
			Command:     getEnv("CARDSCAN_LLM_COMMAND", ""),
			Model:       getEnv("CARDSCAN_LLM_MODEL", "default"),
			Timeout:     getEnvAsDuration("CARDSCAN_LLM_TIMEOUT", 120*time.Second),
			KillGrace:   getEnvAsDuration("CARDSCAN_LLM_KILL_GRACE", 5*time.Second),
			MaxAttempts: getEnvAsInt("CARDSCAN_LLM_ATTEMPTS", 3),
		},
		Pipeline: PipelineConfig{
			MinConfidence:       getEnvAsFloat64("CARDSCAN_MIN_CONFIDENCE", 0.9),
			Workers:             getEnvAsInt("CARDSCAN_WORKERS", 1),
			LexiconCachePath:    getEnv("CARDSCAN_LEXICON_CACHE", "./data/lexicon.json"),
			PenaltyLLMMissing:   getEnvAsFloat64("CARDSCAN_PENALTY_LLM_MISSING", 0.75),
			PenaltyOCRMissing:   getEnvAsFloat64("CARDSCAN_PENALTY_OCR_MISSING", 0.8),
			PenaltyNoVision:     getEnvAsFloat64("CARDSCAN_PENALTY_NO_VISION", 0.6),
			PenaltyTypeConflict: getEnvAsFloat64("CARDSCAN_PENALTY_TYPE_CONFLICT", 0.9),
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Data.Backend {
	case "json", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "CARDSCAN_DB must be json or sqlite", ErrInvalidInput)
	}
	switch c.OCR.Engine {
	case "auto", "ollama-only", "hybrid", "tesseract-only", "none":
	default:
		return NewAppError("CONFIG_ERROR", "CARDSCAN_OCR_ENGINE must be one of auto, ollama-only, hybrid, tesseract-only, none", ErrInvalidInput)
	}
	if c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "CARDSCAN_MIN_CONFIDENCE must be in [0,1]", ErrInvalidInput)
	}
	if c.Pipeline.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "CARDSCAN_WORKERS must be >= 1", ErrInvalidInput)
	}
	return nil
}
