package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"leaddesk/internal/leads"
	"leaddesk/internal/models"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health.
type HealthHandler struct {
	db       Pinger
	analyzer *leads.Analyzer
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database Pinger, analyzer *leads.Analyzer) *HealthHandler {
	return &HealthHandler{db: database, analyzer: analyzer}
}

// Check pings the database and returns 503 when it is unreachable.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	resp := models.HealthResponse{
		Status:       "ok",
		Database:     "ok",
		RulesVersion: h.analyzer.Table().Version,
	}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}

	return c.JSON(resp)
}
