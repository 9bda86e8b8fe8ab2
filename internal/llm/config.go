package llm

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds service client configuration.
type Config struct {
	// BaseURL is the API server the HTTP client talks to.
	BaseURL string
	// Timeout bounds each non-streaming request.
	Timeout time.Duration
	Retry   RetryConfig
	OpenAI  OpenAIConfig
}

// OpenAIConfig configures the direct OpenAI backend.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// RetryConfig configures retry behaviour for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig mirrors the viper defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

// ConfigFromViper reads the api.* and openai.* keys.
func ConfigFromViper() Config {
	return Config{
		BaseURL: viper.GetString("api.base_url"),
		Timeout: viper.GetDuration("api.timeout"),
		Retry: RetryConfig{
			MaxAttempts: viper.GetInt("api.retry.max_attempts"),
			InitialWait: viper.GetDuration("api.retry.initial_wait"),
			MaxWait:     viper.GetDuration("api.retry.max_wait"),
			Multiplier:  viper.GetFloat64("api.retry.multiplier"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			Model:   viper.GetString("openai.model"),
			BaseURL: viper.GetString("openai.base_url"),
		},
	}
}
