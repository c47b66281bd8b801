// Package v1 serves the versioned HTTP API.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cuboulder-se-research/em-assist/application/service"
	"github.com/cuboulder-se-research/em-assist/infrastructure/api/middleware"
	"github.com/cuboulder-se-research/em-assist/infrastructure/api/v1/dto"
)

// maxBodyBytes bounds the request body; a request only names a file and a line.
const maxBodyBytes = 1 << 20

// Lister answers candidate requests.
type Lister interface {
	List(ctx context.Context, req service.ListRequest) service.ListResponse
	Cached(filePath string) service.ListResponse
}

// CandidatesRouter handles candidate listing endpoints.
type CandidatesRouter struct {
	lister Lister
	logger *slog.Logger
}

// NewCandidatesRouter creates a new CandidatesRouter.
func NewCandidatesRouter(lister Lister, logger *slog.Logger) *CandidatesRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidatesRouter{
		lister: lister,
		logger: logger,
	}
}

// Routes returns the chi router for candidate endpoints.
func (r *CandidatesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.List)
	router.Get("/", r.Cached)

	return router
}

// List handles POST /api/v1/candidates.
// Orchestration failures are reported in the payload with status 200, the
// same way the MCP tool reports them. Only an unreadable body is a 400.
func (r *CandidatesRouter) List(w http.ResponseWriter, req *http.Request) {
	var body dto.ListCandidatesRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		message := "Invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			message = "Invalid request body: empty"
		}
		r.logger.WarnContext(req.Context(), "rejected candidates request", slog.String("error", err.Error()))
		middleware.WriteJSON(w, http.StatusBadRequest, service.NewErrorResponse(message))
		return
	}

	resp := r.lister.List(req.Context(), body.ToListRequest())
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Cached handles GET /api/v1/candidates?filePath=...
func (r *CandidatesRouter) Cached(w http.ResponseWriter, req *http.Request) {
	filePath := req.URL.Query().Get("filePath")
	middleware.WriteJSON(w, http.StatusOK, r.lister.Cached(filePath))
}
