package api

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"

	"leaddesk/internal/leads"
	"leaddesk/internal/metrics"
	"leaddesk/internal/validation"
)

// AnalyzeHandler routes and classifies ad-hoc contacts without storing them.
type AnalyzeHandler struct {
	analyzer *leads.Analyzer
}

// NewAnalyzeHandler creates a new API analyze handler.
func NewAnalyzeHandler(analyzer *leads.Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

// Analyze returns the route, merchant tier and social lookup links for a contact.
func (h *AnalyzeHandler) Analyze(c fiber.Ctx) error {
	var body leads.Contact
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)

	if valid, msg := validation.ValidateLead(body.Name, body.Phone, body.Address, body.Source); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	analysis := h.analyzer.Analyze(body)
	metrics.RecordRouteLookup(analysis.Route.Platform.String(), analysis.Classification.Tier.String())

	return jsonSuccess(c, analysis)
}
