package emassist

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuboulder-se-research/em-assist/application/service"
	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
	"github.com/cuboulder-se-research/em-assist/infrastructure/locator"
	"github.com/cuboulder-se-research/em-assist/infrastructure/provider"
	"github.com/cuboulder-se-research/em-assist/infrastructure/suggester"
	"github.com/cuboulder-se-research/em-assist/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	logger            *slog.Logger
	workspaceRoot     string
	workspace         domainservice.Workspace
	suggestionService domainservice.SuggestionService
	textProvider      provider.TextGenerator
	workerCount       int
	documentCacheSize int
	suggestionTimeout time.Duration
	serializePaths    bool
	rateLimit         int
	maxTokens         int
	temperature       float64
	registry          *prometheus.Registry
	closers           []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		workspaceRoot:     config.DefaultWorkspaceRoot(),
		workerCount:       config.DefaultWorkerCount,
		documentCacheSize: locator.DefaultCacheSize,
		suggestionTimeout: service.DefaultSuggestionTimeout,
		maxTokens:         suggester.DefaultMaxTokens,
		temperature:       suggester.DefaultTemperature,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithWorkspaceRoot sets the open project directory.
// Relative request paths resolve against it.
func WithWorkspaceRoot(dir string) Option {
	return func(c *clientConfig) {
		if dir != "" {
			c.workspaceRoot = dir
		}
	}
}

// WithWorkspace replaces the tree-sitter workspace, for hosts that
// already hold parsed documents.
func WithWorkspace(w domainservice.Workspace) Option {
	return func(c *clientConfig) {
		c.workspace = w
	}
}

// WithSuggestionService replaces the LLM-backed suggestion service.
func WithSuggestionService(s domainservice.SuggestionService) Option {
	return func(c *clientConfig) {
		c.suggestionService = s
	}
}

// WithOpenAI uses the OpenAI API with the default chat model.
func WithOpenAI(apiKey string) Option {
	return WithOpenAIConfig(provider.OpenAIConfig{APIKey: apiKey})
}

// WithOpenAIConfig uses an OpenAI-compatible endpoint.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		p := provider.NewOpenAIProvider(cfg)
		c.textProvider = p
		c.closers = append(c.closers, p)
	}
}

// WithTextProvider sets a custom chat completion provider.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithWorkerCount sets the number of orchestrations that run at once.
func WithWorkerCount(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithDocumentCacheSize sets how many parsed files are kept in memory.
func WithDocumentCacheSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.documentCacheSize = n
		}
	}
}

// WithSuggestionTimeout bounds the wait for the suggestion service.
func WithSuggestionTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.suggestionTimeout = d
		}
	}
}

// WithSerializePaths runs orchestrations on the same file one at a time.
func WithSerializePaths(enabled bool) Option {
	return func(c *clientConfig) {
		c.serializePaths = enabled
	}
}

// WithRateLimit caps suggestion requests per minute. Zero means unlimited.
func WithRateLimit(perMinute int) Option {
	return func(c *clientConfig) {
		if perMinute >= 0 {
			c.rateLimit = perMinute
		}
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *clientConfig) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithRegistry registers the client's metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *clientConfig) {
		c.registry = reg
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
