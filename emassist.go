// Package emassist suggests "extract function" refactorings for source files.
//
// A request names a file and a line. The function enclosing that line is sent
// to a chat model, and each suggested line range is validated against the
// function's text before it is returned as a candidate.
//
// Basic usage:
//
//	client, err := emassist.New(
//	    emassist.WithWorkspaceRoot("/path/to/project"),
//	    emassist.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	line := 42
//	resp := client.List(ctx, service.ListRequest{FilePath: "app/main.go", Line: &line})
//	for _, c := range resp.Candidates {
//	    fmt.Println(c.FunctionName, c.LineStart, c.LineEnd, c.Type)
//	}
package emassist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuboulder-se-research/em-assist/application/service"
	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
	"github.com/cuboulder-se-research/em-assist/infrastructure/locator"
	"github.com/cuboulder-se-research/em-assist/infrastructure/metrics"
	"github.com/cuboulder-se-research/em-assist/infrastructure/provider"
	"github.com/cuboulder-se-research/em-assist/infrastructure/suggester"
)

// ErrNotRunning is the cause reported for requests made while the client is stopped.
var ErrNotRunning = errors.New("em-assist: client is not running")

// ErrClientClosed is returned when using a closed client.
var ErrClientClosed = service.ErrClientClosed

const (
	stateStopped int32 = iota
	stateRunning
	stateClosed
)

// Client owns the workspace, the suggestion service and the orchestration
// pool. A new Client is stopped: call Start before serving requests.
//
// The exported Listing and Cache are safe for concurrent use.
type Client struct {
	Listing *service.Listing
	Cache   *service.CandidateCache

	workspace  domainservice.Workspace
	suggestion domainservice.SuggestionService
	recorder   *metrics.Recorder
	registry   *prometheus.Registry

	orchestrator *service.Orchestrator
	pool         *service.Pool

	workerCount       int
	suggestionTimeout time.Duration
	serializePaths    bool

	closers []io.Closer
	logger  *slog.Logger
	state   atomic.Int32
	mu      sync.RWMutex
}

// New creates a stopped Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	workspace := cfg.workspace
	if workspace == nil {
		ws, err := locator.NewWorkspace(cfg.workspaceRoot, cfg.documentCacheSize,
			locator.WithLogger(logger.With(slog.String("component", "locator"))))
		if err != nil {
			return nil, fmt.Errorf("open workspace: %w", err)
		}
		workspace = ws
	}

	suggestion := cfg.suggestionService
	if suggestion == nil {
		generator := cfg.textProvider
		if generator == nil {
			p := provider.NewOpenAIProvider(provider.OpenAIConfig{})
			cfg.closers = append(cfg.closers, p)
			generator = p
			logger.Warn("no suggestion endpoint configured, requests will return no candidates")
		}
		suggestion = suggester.New(generator,
			suggester.WithMaxTokens(cfg.maxTokens),
			suggester.WithTemperature(cfg.temperature),
			suggester.WithRateLimit(cfg.rateLimit),
			suggester.WithLogger(logger.With(slog.String("component", "suggester"))),
		)
	}

	registry := cfg.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	client := &Client{
		Cache:             service.NewCandidateCache(),
		workspace:         workspace,
		suggestion:        suggestion,
		recorder:          metrics.NewRecorder(registry),
		registry:          registry,
		workerCount:       cfg.workerCount,
		suggestionTimeout: cfg.suggestionTimeout,
		serializePaths:    cfg.serializePaths,
		closers:           cfg.closers,
		logger:            logger,
	}

	var listingOpts []service.ListingOption
	if r, ok := workspace.(interface{ Resolve(string) string }); ok {
		listingOpts = append(listingOpts, service.WithPathResolver(r.Resolve))
	}
	client.Listing = service.NewListing(client, client.Cache, logger, listingOpts...)

	return client, nil
}

// Start creates the orchestration pool. Starting a running client does nothing.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Load() == stateClosed {
		return ErrClientClosed
	}
	if !c.state.CompareAndSwap(stateStopped, stateRunning) {
		return nil
	}

	c.pool = service.NewPool(c.workerCount, c.logger)
	c.orchestrator = service.NewOrchestrator(c.workspace, c.suggestion, c.Cache, c.pool,
		service.WithSuggestionTimeout(c.suggestionTimeout),
		service.WithSerializePaths(c.serializePaths),
		service.WithRecorder(c.recorder),
		service.WithOrchestratorLogger(c.logger),
	)

	c.logger.Info("em-assist client started",
		slog.Int("workers", c.pool.Size()),
		slog.Duration("suggestion_timeout", c.suggestionTimeout),
	)
	return nil
}

// Stop cancels in-flight orchestrations and waits for them to return.
// Cached candidates survive a restart. Stopping a stopped client does nothing.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.state.CompareAndSwap(stateRunning, stateStopped) {
		c.mu.Unlock()
		return nil
	}
	pool := c.pool
	c.pool = nil
	c.orchestrator = nil
	c.mu.Unlock()

	pool.Stop()
	c.logger.Info("em-assist client stopped")
	return nil
}

// Close stops the client and releases its resources.
func (c *Client) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}
	if !c.state.CompareAndSwap(stateStopped, stateClosed) {
		return ErrClientClosed
	}

	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	c.logger.Info("em-assist client closed")
	return errors.Join(errs...)
}

// Running reports whether the client accepts requests.
func (c *Client) Running() bool {
	return c.state.Load() == stateRunning
}

// Handle starts an orchestration. While the client is not running the
// returned future has already failed as cancelled.
func (c *Client) Handle(ctx context.Context, filePath string, line int) *service.Future {
	c.mu.RLock()
	orchestrator := c.orchestrator
	c.mu.RUnlock()

	if orchestrator == nil {
		if c.state.Load() == stateClosed {
			return service.Rejected(filePath, ErrClientClosed)
		}
		return service.Rejected(filePath, ErrNotRunning)
	}
	return orchestrator.Handle(ctx, filePath, line)
}

// List runs one request to completion.
func (c *Client) List(ctx context.Context, req service.ListRequest) service.ListResponse {
	return c.Listing.List(ctx, req)
}

// Cached returns the last completed candidates for filePath.
func (c *Client) Cached(filePath string) service.ListResponse {
	return c.Listing.Cached(filePath)
}

// SuggestionTimeout returns the deadline applied to each suggestion request.
func (c *Client) SuggestionTimeout() time.Duration {
	return c.suggestionTimeout
}

// Gatherer exposes the client's metrics for scraping.
func (c *Client) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
