package api

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"

	"leaddesk/internal/audit"
	"leaddesk/internal/leads"
	"leaddesk/internal/middleware"
	"leaddesk/internal/models"
	"leaddesk/internal/validation"
)

const maxTargetLen = 200

// AuditHandler exposes the audit log via JSON API.
type AuditHandler struct {
	log      *audit.Log
	analyzer *leads.Analyzer
}

// NewAuditHandler creates a new API audit handler.
func NewAuditHandler(log *audit.Log, analyzer *leads.Analyzer) *AuditHandler {
	return &AuditHandler{log: log, analyzer: analyzer}
}

// List returns the most recent entries.
func (h *AuditHandler) List(c fiber.Ctx) error {
	limit := parseLimit(c, defaultListLimit, h.log.Cap())
	entries := h.log.Recent(c.Context(), limit)
	if entries == nil {
		entries = []audit.Entry{}
	}

	return jsonSuccess(c, models.AuditListResponse{Entries: entries, Cap: h.log.Cap()})
}

// Append records an action the operator took outside the lead API, such as a
// call placed from a desk phone. Without a score the rule table's base score
// for the action is used.
func (h *AuditHandler) Append(c fiber.Ctx) error {
	var body struct {
		Action string `json:"action"`
		Target string `json:"target"`
		Score  *int   `json:"score"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	body.Action = strings.ToLower(strings.TrimSpace(body.Action))
	body.Target = strings.TrimSpace(body.Target)

	if !validation.ValidateAction(body.Action) {
		return jsonError(c, fiber.StatusBadRequest, "action must start with a letter and contain only lowercase letters, numbers, and underscores")
	}
	if utf8.RuneCountInString(body.Target) > maxTargetLen {
		return jsonError(c, fiber.StatusBadRequest, "target is too long")
	}

	score := h.analyzer.Score(body.Action)
	if body.Score != nil {
		score = *body.Score
	}

	entry, err := h.log.Append(c.Context(), middleware.Operator(c), body.Action, body.Target, score)
	if err != nil {
		if errors.Is(err, audit.ErrEmptyActor) {
			return jsonError(c, fiber.StatusUnauthorized, "operator required")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to append audit entry")
	}

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, entry)
}

// Scores returns per-operator score totals, highest first.
func (h *AuditHandler) Scores(c fiber.Ctx) error {
	return jsonSuccess(c, h.log.Scores(c.Context()))
}
