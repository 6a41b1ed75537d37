// Package config loads server configuration from the environment.
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
	APIKey string

	// Claude relevance scoring (optional)
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentScore int

	// Upload limits
	MaxUploadBytes int64

	// Storage
	DataDir string

	// Entity mappings (CSV files, optional)
	SectionMappingPath string
	AbbreviationsPath  string

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PPBTREE_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentScore: envInt("MAX_CONCURRENT_SCORE", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DataDir: envOr("DATA_DIR", "data"),

		SectionMappingPath: os.Getenv("SECTION_MAPPING_CSV"),
		AbbreviationsPath:  os.Getenv("ABBREVIATIONS_CSV"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentScore <= 0 {
		cfg.MaxConcurrentScore = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the server cannot run without. The
// Anthropic key stays optional: without it the relevance endpoint is
// disabled but ingestion still works.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PPBTREE_API_KEY is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

// RelevanceEnabled reports whether LLM relevance scoring is configured.
func (c Config) RelevanceEnabled() bool {
	return c.AnthropicAPIKey != ""
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
