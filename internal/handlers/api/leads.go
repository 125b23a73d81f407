package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"leaddesk/internal/audit"
	"leaddesk/internal/db"
	"leaddesk/internal/leads"
	"leaddesk/internal/metrics"
	"leaddesk/internal/middleware"
	"leaddesk/internal/models"
	"leaddesk/internal/validation"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// LeadStore is the persistence the lead handlers need. *db.DB implements it.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLeadByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	SearchLeads(ctx context.Context, query string, limit int) ([]models.Lead, error)
	DeleteLead(ctx context.Context, id uuid.UUID) error
	RecordContact(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	CreateNote(ctx context.Context, note *models.Note) error
	GetNotesByLead(ctx context.Context, leadID uuid.UUID) ([]models.Note, error)
}

// LeadHandler handles lead operations via JSON API. Every operator action
// on a lead is written to the audit log.
type LeadHandler struct {
	store    LeadStore
	analyzer *leads.Analyzer
	log      *audit.Log
}

// NewLeadHandler creates a new API lead handler.
func NewLeadHandler(store LeadStore, analyzer *leads.Analyzer, log *audit.Log) *LeadHandler {
	return &LeadHandler{store: store, analyzer: analyzer, log: log}
}

// record appends an audit entry for the current operator. A failed append is
// logged and does not fail the request.
func (h *LeadHandler) record(c fiber.Ctx, action, target string) audit.Entry {
	return recordAction(c, h.log, action, target, h.analyzer.Score(action))
}

func recordAction(c fiber.Ctx, log *audit.Log, action, target string, score int) audit.Entry {
	entry, err := log.Append(c.Context(), middleware.Operator(c), action, target, score)
	if err != nil {
		slog.Error("failed to append audit entry", "action", action, "target", target, "error", err)
	}
	return entry
}

// parseLimit reads ?limit= with a default and upper bound.
func parseLimit(c fiber.Ctx, def, upper int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, upper)
}

// List returns leads, optionally filtered by search query.
func (h *LeadHandler) List(c fiber.Ctx) error {
	query := strings.Clone(validation.NormalizeQuery(c.Query("q")))
	limit := parseLimit(c, defaultListLimit, maxListLimit)

	found, err := h.store.SearchLeads(c.Context(), query, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch leads")
	}
	if found == nil {
		found = []models.Lead{}
	}

	if query != "" {
		h.record(c, "search", query)
	}

	return jsonSuccess(c, found)
}

// Create analyzes and stores a new lead.
func (h *LeadHandler) Create(c fiber.Ctx) error {
	var body leads.Contact
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Phone = strings.TrimSpace(body.Phone)
	body.Address = strings.TrimSpace(body.Address)
	body.Source = strings.TrimSpace(body.Source)

	if valid, msg := validation.ValidateLead(body.Name, body.Phone, body.Address, body.Source); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	analysis := h.analyzer.Analyze(body)

	lead := &models.Lead{
		Name:      body.Name,
		Phone:     body.Phone,
		Address:   body.Address,
		Source:    body.Source,
		CreatedBy: middleware.Operator(c),
	}
	lead.ApplyAnalysis(analysis)

	if err := h.store.CreateLead(c.Context(), lead); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create lead")
	}

	metrics.RecordRouteLookup(lead.Platform, lead.Tier)
	h.record(c, "create", lead.Name)

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, models.LeadResponse{Lead: lead, Analysis: analysis})
}

// lookup parses the :id param and fetches the lead, writing the error
// response itself when it fails.
func (h *LeadHandler) lookup(c fiber.Ctx) (*models.Lead, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "invalid lead id")
	}

	lead, err := h.store.GetLeadByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrLeadNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "lead not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "failed to fetch lead")
	}
	return lead, nil
}

// Get returns a lead with a fresh analysis under the active rules.
func (h *LeadHandler) Get(c fiber.Ctx) error {
	lead, err := h.lookup(c)
	if lead == nil {
		return err
	}

	h.record(c, "view", lead.Name)
	return jsonSuccess(c, models.LeadResponse{Lead: lead, Analysis: h.analyzer.Analyze(lead.Contact())})
}

// Delete removes a lead.
func (h *LeadHandler) Delete(c fiber.Ctx) error {
	lead, err := h.lookup(c)
	if lead == nil {
		return err
	}

	if err := h.store.DeleteLead(c.Context(), lead.ID); err != nil {
		if errors.Is(err, db.ErrLeadNotFound) {
			return jsonError(c, fiber.StatusNotFound, "lead not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete lead")
	}

	h.record(c, "delete", lead.Name)
	return jsonSuccess(c, fiber.Map{"deleted": lead.ID})
}

// Contact returns the chat deep link for a lead and counts the contact.
func (h *LeadHandler) Contact(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid lead id")
	}

	lead, err := h.store.RecordContact(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrLeadNotFound) {
			return jsonError(c, fiber.StatusNotFound, "lead not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to record contact")
	}

	route := h.analyzer.Analyze(lead.Contact()).Route
	entry := h.record(c, "contact", lead.Name)

	return jsonSuccess(c, models.ContactResponse{
		LeadID:       lead.ID.String(),
		Platform:     route.Platform.String(),
		DeepLink:     route.DeepLink,
		ContactCount: lead.ContactCount,
		Risk:         entry.Risk.String(),
	})
}

// AddNote attaches a note to a lead.
func (h *LeadHandler) AddNote(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid lead id")
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	body.Body = strings.TrimSpace(body.Body)

	if valid, msg := validation.ValidateNote(body.Body); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	note := &models.Note{LeadID: id, Author: middleware.Operator(c), Body: body.Body}
	if err := h.store.CreateNote(c.Context(), note); err != nil {
		if errors.Is(err, db.ErrLeadNotFound) {
			return jsonError(c, fiber.StatusNotFound, "lead not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to create note")
	}

	h.record(c, "note", id.String())

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, note)
}

// ListNotes returns a lead's notes, newest first.
func (h *LeadHandler) ListNotes(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid lead id")
	}

	notes, err := h.store.GetNotesByLead(c.Context(), id)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch notes")
	}
	if notes == nil {
		notes = []models.Note{}
	}

	return jsonSuccess(c, notes)
}
