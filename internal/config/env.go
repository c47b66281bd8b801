package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., ENRICHMENT_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8001)
	Port int `envconfig:"PORT" default:"8001"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// WorkspaceRoot is the open project. Relative file paths resolve against it.
	// Env: WORKSPACE_ROOT
	// Default: current working directory
	WorkspaceRoot string `envconfig:"WORKSPACE_ROOT"`

	// WorkerCount is the number of concurrent orchestrations.
	// Env: WORKER_COUNT (default: 8)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"8"`

	// DocumentCacheSize is the number of parsed files kept in memory.
	// Env: DOCUMENT_CACHE_SIZE (default: 64)
	DocumentCacheSize int `envconfig:"DOCUMENT_CACHE_SIZE" default:"64"`

	// SuggestionTimeout is the suggestion deadline in seconds.
	// Env: SUGGESTION_TIMEOUT (default: 120)
	SuggestionTimeout float64 `envconfig:"SUGGESTION_TIMEOUT" default:"120"`

	// SuggestionRateLimit is the suggestion requests allowed per minute.
	// Env: SUGGESTION_RATE_LIMIT (default: 0, unlimited)
	SuggestionRateLimit int `envconfig:"SUGGESTION_RATE_LIMIT" default:"0"`

	// SerializePaths runs orchestrations on the same file one at a time.
	// Env: SERIALIZE_PATHS (default: false)
	SerializePaths bool `envconfig:"SERIALIZE_PATHS" default:"false"`

	// CORSAllowedOrigins is a comma-separated list of origins. Empty disables CORS.
	// Env: CORS_ALLOWED_ORIGINS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// EnrichmentEndpoint configures the chat completion service.
	EnrichmentEndpoint EndpointEnv `envconfig:"ENRICHMENT_ENDPOINT"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., gpt-4o-mini).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 0)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"0"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxTokens is the completion token limit.
	// Env: *_MAX_TOKENS (default: 2048)
	MaxTokens int `envconfig:"MAX_TOKENS" default:"2048"`

	// Temperature is the sampling temperature.
	// Env: *_TEMPERATURE (default: 0.7)
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.7"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "EM_ASSIST" would require EM_ASSIST_PORT instead of PORT.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize trims whitespace and canonicalizes case-insensitive values.
func (e EnvConfig) Normalize() EnvConfig {
	e.Host = strings.TrimSpace(e.Host)
	e.LogLevel = strings.ToUpper(strings.TrimSpace(e.LogLevel))
	e.LogFormat = strings.ToLower(strings.TrimSpace(e.LogFormat))
	e.WorkspaceRoot = strings.TrimSpace(e.WorkspaceRoot)
	e.EnrichmentEndpoint.BaseURL = strings.TrimRight(strings.TrimSpace(e.EnrichmentEndpoint.BaseURL), "/")
	e.EnrichmentEndpoint.Model = strings.TrimSpace(e.EnrichmentEndpoint.Model)
	e.EnrichmentEndpoint.APIKey = strings.TrimSpace(e.EnrichmentEndpoint.APIKey)
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.WorkspaceRoot != "" {
		cfg = applyOption(cfg, WithWorkspaceRoot(e.WorkspaceRoot))
	}

	cfg = applyOption(cfg, WithWorkerCount(e.WorkerCount))
	cfg = applyOption(cfg, WithDocumentCacheSize(e.DocumentCacheSize))
	cfg = applyOption(cfg, WithSuggestionTimeout(seconds(e.SuggestionTimeout)))
	cfg = applyOption(cfg, WithSuggestionRateLimit(e.SuggestionRateLimit))
	cfg = applyOption(cfg, WithSerializePaths(e.SerializePaths))

	if e.CORSAllowedOrigins != "" {
		cfg = applyOption(cfg, WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)))
	}

	cfg = applyOption(cfg, WithEnrichmentEndpoint(e.EnrichmentEndpoint.ToEndpoint()))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxTokens(e.MaxTokens),
		WithTemperature(e.Temperature),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.Model != "" {
		opts = append(opts, WithModel(e.Model))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
