package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	emassist "github.com/cuboulder-se-research/em-assist"
	apimiddleware "github.com/cuboulder-se-research/em-assist/infrastructure/api/middleware"
	v1 "github.com/cuboulder-se-research/em-assist/infrastructure/api/v1"
	mcpinternal "github.com/cuboulder-se-research/em-assist/internal/mcp"
)

// ListPath is the unversioned one-shot listing route editors call.
const ListPath = "/" + mcpinternal.ToolName

// APIServer provides an HTTP API backed by an em-assist Client.
type APIServer struct {
	client       *emassist.Client
	corsOrigins  []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given Client.
// corsOrigins enables CORS for browser-hosted editors; nil leaves it off.
func NewAPIServer(client *emassist.Client, corsOrigins []string) *APIServer {
	return &APIServer{
		client:      client,
		corsOrigins: corsOrigins,
		logger:      client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), call MountRoutes(),
// then register any extra routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up the listing, MCP and metrics routes on the router.
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(a.logger))
	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.CorrelationHeader, "Mcp-Session-Id"},
			ExposedHeaders: []string{apimiddleware.CorrelationHeader, "Mcp-Session-Id"},
			MaxAge:         300,
		}))
	}
	router.NotFound(apimiddleware.NotFound)
	router.MethodNotAllowed(apimiddleware.MethodNotAllowed)

	candidates := v1.NewCandidatesRouter(c, a.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/candidates", candidates.Routes())
	})

	router.Post(ListPath, candidates.List)
	router.Get("/candidates", candidates.Cached)

	// Streaming MCP transport; chi's Timeout middleware would break its
	// session headers.
	mcpSrv := mcpinternal.NewServer(c, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))

	router.Handle("/metrics", promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{}))
}

// ListenAndServe starts the HTTP server on the given address. The write
// timeout follows the client's suggestion timeout.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger, WithWriteTimeout(WriteTimeoutFor(a.client)))
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}

// WriteTimeoutFor leaves room past the suggestion timeout for the response.
func WriteTimeoutFor(client *emassist.Client) time.Duration {
	return client.SuggestionTimeout() + writeTimeoutMargin
}

const writeTimeoutMargin = 30 * time.Second
