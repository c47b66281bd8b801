package main

import (
	"log/slog"
	"time"

	emassist "github.com/cuboulder-se-research/em-assist"
	"github.com/cuboulder-se-research/em-assist/infrastructure/provider"
	"github.com/cuboulder-se-research/em-assist/internal/config"
)

// clientOptions returns the emassist.Option slice derived from AppConfig.
// Callers append entrypoint-specific options before calling emassist.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []emassist.Option {
	opts := []emassist.Option{
		emassist.WithLogger(logger),
		emassist.WithWorkspaceRoot(cfg.WorkspaceRoot()),
		emassist.WithWorkerCount(cfg.WorkerCount()),
		emassist.WithDocumentCacheSize(cfg.DocumentCacheSize()),
		emassist.WithSuggestionTimeout(cfg.SuggestionTimeout()),
		emassist.WithSerializePaths(cfg.SerializePaths()),
		emassist.WithRateLimit(cfg.SuggestionRateLimit()),
	}

	return append(opts, textOptions(cfg.EnrichmentEndpoint(), cfg.SuggestionTimeout())...)
}

// textOptions returns the suggestion provider options when the enrichment
// endpoint is configured, or nil otherwise. The HTTP timeout never undercuts
// the suggestion timeout so a stalled endpoint is reported as a timeout.
func textOptions(endpoint config.Endpoint, suggestionTimeout time.Duration) []emassist.Option {
	if !endpoint.IsConfigured() {
		return nil
	}

	return []emassist.Option{
		emassist.WithOpenAIConfig(providerConfig(endpoint, suggestionTimeout)),
		emassist.WithMaxTokens(endpoint.MaxTokens()),
		emassist.WithTemperature(endpoint.Temperature()),
	}
}

func providerConfig(endpoint config.Endpoint, suggestionTimeout time.Duration) provider.OpenAIConfig {
	return provider.OpenAIConfig{
		APIKey:        endpoint.APIKey(),
		BaseURL:       endpoint.BaseURL(),
		Model:         endpoint.Model(),
		Timeout:       max(endpoint.Timeout(), suggestionTimeout),
		MaxRetries:    endpoint.MaxRetries(),
		InitialDelay:  endpoint.InitialDelay(),
		BackoffFactor: endpoint.BackoffFactor(),
	}
}
