package main

import (
	"net/http"

	"github.com/turtacn/casetrack/internal/app"
	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/casetrack/internal/interfaces/http"
	"github.com/turtacn/casetrack/internal/interfaces/http/handlers"
	"github.com/turtacn/casetrack/internal/interfaces/http/middleware"
)

// buildRouter wires handlers to the services and optional side channels.
func buildRouter(cfg *config.Config, infra *app.Infrastructure, services *app.Services, logger logging.Logger) http.Handler {
	rc := httpserver.RouterConfig{
		CaseHandler:     handlers.NewCaseHandler(services.Cases, services.Exports, logger.Named("cases")),
		WorkflowHandler: handlers.NewWorkflowHandler(services.Workflows, logger.Named("workflows")),
		HealthHandler:   handlers.NewHealthHandler(version, infra.HealthCheckers()...),
		Logger:          logger.Named("http"),
	}
	if infra.Searcher != nil {
		rc.SearchHandler = handlers.NewSearchHandler(infra.Searcher, logger.Named("search"))
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig(cfg.Server.CORSAllowedOrigins)
		rc.CORS = &cors
	}
	if infra.Metrics != nil {
		rc.HTTPMetrics = infra.Metrics
		rc.MetricsHandle = infra.Collector.Handler()
	}
	return httpserver.NewRouter(rc)
}

//Personal.AI order the ending
