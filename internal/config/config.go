// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8001
	DefaultLogLevel              = "INFO"
	DefaultWorkerCount           = 8
	DefaultDocumentCacheSize     = 64
	DefaultSuggestionTimeout     = 120 * time.Second
	DefaultSuggestionRateLimit   = 0
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 0
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxTokens     = 2048
	DefaultEndpointTemperature   = 0.7
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the chat completion service that produces suggestions.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxTokens     int
	temperature   float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxTokens:     DefaultEndpointMaxTokens,
		temperature:   DefaultEndpointTemperature,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the per-request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxTokens returns the completion token limit.
func (e Endpoint) MaxTokens() int { return e.maxTokens }

// Temperature returns the sampling temperature.
func (e Endpoint) Temperature() float64 { return e.temperature }

// IsConfigured reports whether the endpoint can reach a service.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != "" || e.baseURL != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxRetries sets the retry count. Zero disables retries.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) EndpointOption {
	return func(e *Endpoint) {
		if t >= 0 {
			e.temperature = t
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the resolved application configuration.
type AppConfig struct {
	host                string
	port                int
	logLevel            string
	logFormat           LogFormat
	workspaceRoot       string
	workerCount         int
	documentCacheSize   int
	suggestionTimeout   time.Duration
	suggestionRateLimit int
	serializePaths      bool
	corsAllowedOrigins  []string
	enrichmentEndpoint  Endpoint
}

// DefaultWorkspaceRoot returns the current working directory, or "." when
// it cannot be determined.
func DefaultWorkspaceRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		workspaceRoot:      DefaultWorkspaceRoot(),
		workerCount:        DefaultWorkerCount,
		documentCacheSize:  DefaultDocumentCacheSize,
		suggestionTimeout:  DefaultSuggestionTimeout,
		corsAllowedOrigins: []string{},
		enrichmentEndpoint: NewEndpoint(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// WorkspaceRoot returns the directory that relative file paths resolve against.
func (c AppConfig) WorkspaceRoot() string { return c.workspaceRoot }

// WorkerCount returns the orchestration pool size.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// DocumentCacheSize returns the number of parsed documents kept in memory.
func (c AppConfig) DocumentCacheSize() int { return c.documentCacheSize }

// SuggestionTimeout returns the deadline for one suggestion request.
func (c AppConfig) SuggestionTimeout() time.Duration { return c.suggestionTimeout }

// SuggestionRateLimit returns the allowed suggestion requests per minute. Zero means unlimited.
func (c AppConfig) SuggestionRateLimit() int { return c.suggestionRateLimit }

// SerializePaths reports whether orchestrations on the same path run one at a time.
func (c AppConfig) SerializePaths() bool { return c.serializePaths }

// CORSAllowedOrigins returns a copy of the allowed CORS origins.
func (c AppConfig) CORSAllowedOrigins() []string {
	out := make([]string, len(c.corsAllowedOrigins))
	copy(out, c.corsAllowedOrigins)
	return out
}

// EnrichmentEndpoint returns the suggestion service endpoint.
func (c AppConfig) EnrichmentEndpoint() Endpoint { return c.enrichmentEndpoint }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithWorkspaceRoot sets the workspace root. Relative roots are made absolute.
func WithWorkspaceRoot(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if dir == "" {
			return
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		c.workspaceRoot = dir
	}
}

// WithWorkerCount sets the orchestration pool size.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithDocumentCacheSize sets the parsed document cache size.
func WithDocumentCacheSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.documentCacheSize = n
		}
	}
}

// WithSuggestionTimeout sets the suggestion deadline.
func WithSuggestionTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.suggestionTimeout = d
		}
	}
}

// WithSuggestionRateLimit sets the suggestion requests allowed per minute.
func WithSuggestionRateLimit(perMinute int) AppConfigOption {
	return func(c *AppConfig) {
		if perMinute >= 0 {
			c.suggestionRateLimit = perMinute
		}
	}
}

// WithSerializePaths enables per-path serialization.
func WithSerializePaths(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.serializePaths = enabled }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// WithEnrichmentEndpoint sets the suggestion service endpoint.
func WithEnrichmentEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.enrichmentEndpoint = e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	c.corsAllowedOrigins = c.CORSAllowedOrigins()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// The API key is never included.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("log_level", c.logLevel),
		slog.String("workspace_root", c.workspaceRoot),
		slog.Int("worker_count", c.workerCount),
		slog.Int("document_cache_size", c.documentCacheSize),
		slog.Duration("suggestion_timeout", c.suggestionTimeout),
		slog.Int("suggestion_rate_limit", c.suggestionRateLimit),
		slog.Bool("serialize_paths", c.serializePaths),
		slog.Int("cors_origins_count", len(c.corsAllowedOrigins)),
		slog.String("enrichment_base_url", orDefault(c.enrichmentEndpoint.BaseURL(), "(default)")),
		slog.String("enrichment_model", orDefault(c.enrichmentEndpoint.Model(), "(default)")),
		slog.Bool("enrichment_configured", c.enrichmentEndpoint.IsConfigured()),
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// ParseList parses a comma-separated string, dropping blank entries.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
