package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/internal/interfaces/http/handlers"
	"github.com/turtacn/casetrack/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the API route tree.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	CaseHandler     *handlers.CaseHandler
	WorkflowHandler *handlers.WorkflowHandler
	SearchHandler   *handlers.SearchHandler
	HealthHandler   *handlers.HealthHandler

	CORS          *middleware.CORSConfig
	Logging       *middleware.LoggingConfig
	HTTPMetrics   middleware.HTTPMetrics
	MetricsHandle http.Handler

	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil && len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		lc := middleware.DefaultLoggingConfig()
		if cfg.Logging != nil {
			lc = *cfg.Logging
		}
		r.Use(middleware.RequestLogging(cfg.Logger, lc))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.RequestMetrics(cfg.HTTPMetrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandle != nil {
		r.Handle("/metrics", cfg.MetricsHandle)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerCaseRoutes(api, cfg.CaseHandler)
		registerWorkflowRoutes(api, cfg.WorkflowHandler)
		if cfg.SearchHandler != nil {
			api.Get("/search/cases", cfg.SearchHandler.Cases)
		}
	})

	return r
}

// registerCaseRoutes mounts the case table, dashboard, recompute and export.
func registerCaseRoutes(r chi.Router, h *handlers.CaseHandler) {
	if h == nil {
		return
	}
	r.Route("/cases", func(cr chi.Router) {
		cr.Get("/", h.List)
		cr.Post("/", h.Create)

		cr.Route("/{caseID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Patch("/", h.Update)
			item.Post("/status", h.Transition)
		})
	})
	r.Get("/dashboard", h.Dashboard)
	r.Post("/recompute", h.Recompute)
	if h.CanExport() {
		r.Post("/exports/cases", h.Export)
	}
}

// registerWorkflowRoutes mounts project workflows and their steps.
func registerWorkflowRoutes(r chi.Router, h *handlers.WorkflowHandler) {
	if h == nil {
		return
	}
	r.Get("/workflow-templates", h.Templates)
	r.Route("/projects/{projectID}/workflow", func(pr chi.Router) {
		pr.Get("/", h.Get)
		pr.Post("/", h.Instantiate)
	})
	r.Route("/steps/{stepID}", func(sr chi.Router) {
		sr.Put("/done", h.SetDone)
		sr.Patch("/dates", h.UpdateDates)
	})
}

//Personal.AI order the ending
