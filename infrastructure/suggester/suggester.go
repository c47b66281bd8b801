// Package suggester asks a chat model for extract-function suggestions.
package suggester

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
	"github.com/cuboulder-se-research/em-assist/infrastructure/provider"
)

// Sampling defaults.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// LLMSuggester implements SuggestionService on top of a TextGenerator.
type LLMSuggester struct {
	generator   provider.TextGenerator
	prompt      Prompt
	limiter     *rate.Limiter
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// Option configures an LLMSuggester.
type Option func(*LLMSuggester)

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(s *LLMSuggester) { s.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *LLMSuggester) { s.temperature = t }
}

// WithPrompt replaces the built-in prompt.
func WithPrompt(p Prompt) Option {
	return func(s *LLMSuggester) { s.prompt = p }
}

// WithRateLimit allows at most perMinute requests per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *LLMSuggester) {
		if perMinute <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *LLMSuggester) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an LLMSuggester.
func New(generator provider.TextGenerator, opts ...Option) *LLMSuggester {
	s := &LLMSuggester{
		generator:   generator,
		prompt:      DefaultPrompt(),
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest sends the numbered function text and returns the raw reply.
func (s *LLMSuggester) Suggest(ctx context.Context, code string, firstLine int) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	req := provider.NewChatCompletionRequest(s.prompt.Messages(code, firstLine)).
		WithMaxTokens(s.maxTokens).
		WithTemperature(s.temperature)

	start := time.Now()
	resp, err := s.generator.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	s.log.Debug("suggestions received",
		slog.Duration("elapsed", time.Since(start)),
		slog.String("finish_reason", resp.FinishReason()),
		slog.Int("total_tokens", resp.Usage().TotalTokens()),
	)
	return resp.Content(), nil
}

var _ domainservice.SuggestionService = (*LLMSuggester)(nil)
