package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leaddesk/internal/audit"
	"leaddesk/internal/handlers/api"
	"leaddesk/internal/leads"
	"leaddesk/internal/middleware"
)

// Store is the persistence behind the HTTP API. *db.DB implements it.
type Store interface {
	api.LeadStore
	api.Pinger
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(store Store, analyzer *leads.Analyzer, auditLog *audit.Log) {
	// Initialize middleware
	operator := middleware.NewOperatorMiddleware(s.Cfg.OperatorHeader)

	// Initialize handlers
	healthHandler := api.NewHealthHandler(store, analyzer)
	analyzeHandler := api.NewAnalyzeHandler(analyzer)
	leadHandler := api.NewLeadHandler(store, analyzer, auditLog)
	auditHandler := api.NewAuditHandler(auditLog, analyzer)

	// Operational endpoints
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// JSON API - every call is attributed to an operator
	apiGroup := s.App.Group("/api", operator.RequireOperator)

	apiGroup.Post("/analyze", analyzeHandler.Analyze)

	apiGroup.Get("/leads", leadHandler.List)
	apiGroup.Post("/leads", leadHandler.Create)
	apiGroup.Get("/leads/:id", leadHandler.Get)
	apiGroup.Delete("/leads/:id", leadHandler.Delete)
	apiGroup.Post("/leads/:id/contact", leadHandler.Contact)
	apiGroup.Get("/leads/:id/notes", leadHandler.ListNotes)
	apiGroup.Post("/leads/:id/notes", leadHandler.AddNote)

	apiGroup.Get("/audit", auditHandler.List)
	apiGroup.Post("/audit", auditHandler.Append)
	apiGroup.Get("/audit/scores", auditHandler.Scores)
}
