package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string
	Debug    bool

	OpenAIAPIKey             string
	OpenAIBaseURL            string
	OpenAIModel              string
	OpenAIConversionModel    string
	OpenAITranscriptionModel string

	OpenAIRetryMaxAttempts      int
	OpenAIRetryInitialBackoffMS int
	OpenAIRetryMaxBackoffMS     int
	OpenAIBreakerEnabled        bool

	MaxFileSizeMB              int
	TempDir                    string
	ExternalCallTimeoutSeconds int
	SessionTTLMinutes          int

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	NATSURL     string
	NATSSubject string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),
		Debug:    mustEnvBool("DEBUG", false),

		OpenAIAPIKey:             mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:            mustEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:              mustEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIConversionModel:    mustEnv("OPENAI_CONVERSION_MODEL", "gpt-4o"),
		OpenAITranscriptionModel: mustEnv("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),

		OpenAIRetryMaxAttempts:      mustEnvInt("OPENAI_RETRY_MAX_ATTEMPTS", 1),
		OpenAIRetryInitialBackoffMS: mustEnvInt("OPENAI_RETRY_INITIAL_BACKOFF_MS", 200),
		OpenAIRetryMaxBackoffMS:     mustEnvInt("OPENAI_RETRY_MAX_BACKOFF_MS", 2000),
		OpenAIBreakerEnabled:        mustEnvBool("OPENAI_BREAKER_ENABLED", true),

		MaxFileSizeMB:              mustEnvInt("MAX_FILE_SIZE", 10),
		TempDir:                    mustEnv("TEMP_DIR", ""),
		ExternalCallTimeoutSeconds: mustEnvInt("EXTERNAL_CALL_TIMEOUT_SECONDS", 120),
		SessionTTLMinutes:          mustEnvInt("SESSION_TTL_MINUTES", 60),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 8),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "analyses.completed"),
	}
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return domain.WrapError(domain.ErrConfiguration, "load config", errors.New("OPENAI_API_KEY environment variable is required"))
	}
	if c.MaxFileSizeMB <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "load config", errors.New("MAX_FILE_SIZE must be positive"))
	}
	return nil
}

func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func (c Config) ExternalCallTimeout() time.Duration {
	if c.ExternalCallTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ExternalCallTimeoutSeconds) * time.Second
}

// An analysis makes at most two bounded external calls: conversion or
// description, then the summary.
const (
	externalCallsPerAnalysis = 2
	writeTimeoutMargin       = 60 * time.Second
)

// WriteTimeout is the HTTP server write deadline. It outlasts every external
// call one analysis can make; zero when those calls are unbounded.
func (c Config) WriteTimeout() time.Duration {
	callTimeout := c.ExternalCallTimeout()
	if callTimeout <= 0 {
		return 0
	}
	return externalCallsPerAnalysis*callTimeout + writeTimeoutMargin
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
