package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the pipeline recognizes, materialized from
// the environment once at startup.
type Config struct {
	AppEnv string
	Port   string

	MaxRequestsPerMinute int
	RateLimitMode        string
	MaxCommentsPerVideo  int
	TopKeywords          int
	AnalysisWorkers      int

	ContextMaxComments int
	ContextMaxChars    int
	LLMModel           string
	LLMRequestsPerSec  float64

	FetchTimeout     time.Duration
	SummarizeTimeout time.Duration

	JobResultsTable string
	ValkeyAddress   string
}

func FromEnv() Config {
	return Config{
		AppEnv: getEnv("APP_ENV", "dev"),
		Port:   getEnv("PORT", "8080"),

		MaxRequestsPerMinute: getEnvInt("MAX_REQUESTS_PER_MINUTE", 60),
		RateLimitMode:        getEnv("RATE_LIMIT_MODE", "wait"),
		MaxCommentsPerVideo:  getEnvInt("MAX_COMMENTS_PER_VIDEO", 100),
		TopKeywords:          getEnvInt("TOP_KEYWORDS", 5),
		AnalysisWorkers:      getEnvInt("ANALYSIS_WORKERS", 4),

		ContextMaxComments: getEnvInt("CONTEXT_MAX_COMMENTS", 50),
		ContextMaxChars:    getEnvInt("CONTEXT_MAX_CHARS", 6000),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMRequestsPerSec:  getEnvFloat("LLM_REQUESTS_PER_SECOND", 2),

		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		SummarizeTimeout: getEnvDuration("SUMMARIZE_TIMEOUT", 60*time.Second),

		JobResultsTable: getEnv("JOB_RESULTS_TABLE", "job_results"),
		ValkeyAddress:   os.Getenv("VALKEY_ADDRESS"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
