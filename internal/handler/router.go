package handler

import (
	"net/http"
	"strings"

	"github.com/examforge/examforge/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	jobHandler     *JobHandler
	healthHandler  *HealthHandler
	metricsHandler http.Handler
	corsConfig     middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	jobHandler *JobHandler,
	healthHandler *HealthHandler,
	metricsHandler http.Handler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		jobHandler:     jobHandler,
		healthHandler:  healthHandler,
		metricsHandler: metricsHandler,
		corsConfig:     corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Operational endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)
	mux.Handle("/metrics", rt.metricsHandler)

	// API endpoints
	mux.HandleFunc("/api/v1/jobs", rt.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", rt.handleJobsWithID)
	mux.HandleFunc("/api/v1/limits", rt.handleLimits)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleJobs routes the job collection endpoints
func (rt *Router) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.jobHandler.Submit(w, r)
	case http.MethodGet:
		rt.jobHandler.List(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleJobsWithID routes individual job endpoints
func (rt *Router) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")

	if strings.HasSuffix(path, "/cancel") {
		if r.Method != http.MethodPost && r.Method != http.MethodOptions {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.jobHandler.Cancel(w, r)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.jobHandler.Status(w, r)
}

// handleLimits routes the limits endpoint
func (rt *Router) handleLimits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.jobHandler.Limits(w, r)
}
