package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	ServiceAPIKey string

	// Gemini generation
	GeminiAPIKey string
	GeminiModel  string

	// Run scheduling
	WorkerCount  int
	MaxQueueSize int
	RunTTL       time.Duration

	// Pipeline
	MaxChunkSize    int // characters per chunk
	MaxConcurrent   int // simultaneous generation calls within a batch
	MinTextLength   int // extracted text below this fails the run
	MinPartialDraft int // draft below this cannot rescue a failed late stage
	MaxRetries      int

	// Time estimation
	RatePerChar    float64 // seconds of processing per source character
	EstimateFloor  int     // seconds
	OverheadFactor float64 // consolidation+polish allowance in units of avg chunk time

	// Generation rate limiting
	RequestsPerSecond float64

	// Upload limits
	MaxUploadBytes int64

	// Summary language
	DefaultLanguage string

	// Run history
	HistoryPath string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		ServiceAPIKey: os.Getenv("SUMMARIZER_API_KEY"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.0-flash"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 16),
		RunTTL:       envDuration("RUN_TTL", 1*time.Hour),

		MaxChunkSize:    envInt("MAX_CHUNK_SIZE", 100000),
		MaxConcurrent:   envInt("MAX_CONCURRENT_CALLS", 3),
		MinTextLength:   envInt("MIN_TEXT_LENGTH", 100),
		MinPartialDraft: envInt("MIN_PARTIAL_DRAFT", 500),
		MaxRetries:      envInt("MAX_RETRIES", 3),

		RatePerChar:    envFloat("ESTIMATE_RATE_PER_CHAR", 0.0005),
		EstimateFloor:  envInt("ESTIMATE_FLOOR_SECONDS", 30),
		OverheadFactor: envFloat("ESTIMATE_OVERHEAD_FACTOR", 1.5),

		RequestsPerSecond: envFloat("REQUESTS_PER_SECOND", 2),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		DefaultLanguage: envOr("DEFAULT_LANGUAGE", "en"),

		HistoryPath: envOr("HISTORY_PATH", "history.json"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 100000
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 100
	}
	if cfg.MinPartialDraft <= 0 {
		cfg.MinPartialDraft = 500
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RatePerChar <= 0 {
		cfg.RatePerChar = 0.0005
	}
	if cfg.EstimateFloor <= 0 {
		cfg.EstimateFloor = 30
	}
	if cfg.OverheadFactor <= 0 {
		cfg.OverheadFactor = 1.5
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ServiceAPIKey == "" {
		return fmt.Errorf("SUMMARIZER_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
