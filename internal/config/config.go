package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer auth on /api routes.
	APIKey string

	// Worker pool
	WorkerCount       int
	MaxQueueSize      int
	MaxConcurrentDocs int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Per-document parse deadline
	DocumentTimeout time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Persistence. ":memory:" keeps results for the process lifetime only.
	DatabasePath string

	// Optional TOML file extending the built-in unit and column vocabulary
	VocabularyFile string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8000"),

		APIKey: os.Getenv("PARTIDAS_API_KEY"),

		WorkerCount:       envInt("WORKER_COUNT", 2),
		MaxQueueSize:      envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentDocs: envInt("MAX_CONCURRENT_DOCS", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 100<<20), // 100MB

		JobTTL:          envDuration("JOB_TTL", 1*time.Hour),
		DocumentTimeout: envDuration("DOCUMENT_TIMEOUT", 2*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		DatabasePath:   envOr("DATABASE_PATH", "partidas.db"),
		VocabularyFile: os.Getenv("VOCABULARY_FILE"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentDocs <= 0 {
		cfg.MaxConcurrentDocs = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.DocumentTimeout < 0 {
		cfg.DocumentTimeout = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %q", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); err != nil {
			return fmt.Errorf("VOCABULARY_FILE: %w", err)
		}
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
