package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	emassist "github.com/cuboulder-se-research/em-assist"
	"github.com/cuboulder-se-research/em-assist/infrastructure/api"
	"github.com/cuboulder-se-research/em-assist/internal/config"
	"github.com/cuboulder-se-research/em-assist/internal/log"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and streamable MCP server",
		Long: `Start the HTTP server. It serves the one-shot listing route, the
streamable MCP endpoint and Prometheus metrics.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8001)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  WORKSPACE_ROOT               Directory relative file paths resolve against (default: cwd)
  WORKER_COUNT                 Concurrent orchestrations (default: 8)
  DOCUMENT_CACHE_SIZE          Parsed documents kept in memory (default: 64)
  SUGGESTION_TIMEOUT           Seconds to wait for suggestions (default: 120)
  SUGGESTION_RATE_LIMIT        Suggestion requests per minute, 0 for unlimited (default: 0)
  SERIALIZE_PATHS              Run one orchestration per file at a time (default: false)
  CORS_ALLOWED_ORIGINS         Comma-separated origins allowed to call the API

  ENRICHMENT_ENDPOINT_*        Suggestion service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., gpt-4o-mini)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 0)
    INITIAL_DELAY              First retry delay in seconds (default: 2)
    BACKOFF_FACTOR             Retry delay multiplier (default: 2)
    MAX_TOKENS                 Completion token limit (default: 2048)
    TEMPERATURE                Sampling temperature (default: 0.7)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8001)")

	return cmd
}

func runServe(ctx context.Context, envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	slogger := log.Configure(cfg, os.Stdout).Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting em-assist", attrs...)

	client, err := emassist.New(clientOptions(cfg, slogger)...)
	if err != nil {
		return fmt.Errorf("create em-assist client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, emassist.ErrClientClosed) {
			slogger.Error("failed to close em-assist client", slog.Any("error", err))
		}
	}()

	if err := client.Start(); err != nil {
		return fmt.Errorf("start em-assist client: %w", err)
	}

	apiServer := api.NewAPIServer(client, cfg.CORSAllowedOrigins())
	router := apiServer.Router()
	apiServer.MountRoutes()

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"em-assist","version":"%s","mcp":"/mcp","list":"%s"}`, version, api.ListPath)
	})

	server := api.NewServer(cfg.Addr(), slogger, api.WithWriteTimeout(api.WriteTimeoutFor(client)))
	server.Router().Mount("/", router)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return serve(ctx, listener, &server, client, slogger)
}

// serve runs server on listener until ctx is done. The client is stopped
// before the server drains, so requests waiting on suggestions return
// "Request cancelled" instead of holding shutdown open.
func serve(ctx context.Context, listener net.Listener, server *api.Server, client *emassist.Client, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Serve(listener) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		if err := client.Stop(); err != nil {
			return fmt.Errorf("stop client: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
