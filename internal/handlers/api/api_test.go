package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"leaddesk/internal/audit"
	"leaddesk/internal/db"
	"leaddesk/internal/leads"
	"leaddesk/internal/middleware"
	"leaddesk/internal/models"
	"leaddesk/internal/rules"
)

// memLeadStore is an in-memory LeadStore.
type memLeadStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*models.Lead
	notes []models.Note
	fail  bool
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: make(map[uuid.UUID]*models.Lead)}
}

var errStore = errors.New("store unavailable")

func (s *memLeadStore) CreateLead(_ context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStore
	}
	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	cp := *lead
	s.leads[lead.ID] = &cp
	return nil
}

func (s *memLeadStore) GetLeadByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, db.ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

func (s *memLeadStore) SearchLeads(_ context.Context, query string, limit int) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errStore
	}
	var out []models.Lead
	for _, l := range s.leads {
		if query == "" || strings.Contains(strings.ToLower(l.Name+" "+l.Address), strings.ToLower(query)) {
			out = append(out, *l)
		}
	}
	slices.SortFunc(out, func(a, b models.Lead) int { return strings.Compare(a.Name, b.Name) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memLeadStore) DeleteLead(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return db.ErrLeadNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *memLeadStore) RecordContact(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, db.ErrLeadNotFound
	}
	now := time.Now()
	lead.ContactCount++
	lead.LastContactedAt = &now
	cp := *lead
	return &cp, nil
}

func (s *memLeadStore) CreateNote(_ context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[note.LeadID]; !ok {
		return db.ErrLeadNotFound
	}
	note.ID = uuid.New()
	note.CreatedAt = time.Now()
	s.notes = append(s.notes, *note)
	return nil
}

func (s *memLeadStore) GetNotesByLead(_ context.Context, leadID uuid.UUID) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Note
	for _, n := range s.notes {
		if n.LeadID == leadID {
			out = append(out, n)
		}
	}
	return out, nil
}

// steppingClock advances by step on every call.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type testEnv struct {
	app      *fiber.App
	store    *memLeadStore
	log      *audit.Log
	analyzer *leads.Analyzer
}

// newTestEnv wires the API routes over in-memory stores. Consecutive audit
// entries are step apart.
func newTestEnv(t *testing.T, step time.Duration) *testEnv {
	t.Helper()
	store := newMemLeadStore()
	env := newTestEnvWithStore(t, step, store)
	env.store = store
	return env
}

func newTestEnvWithStore(t *testing.T, step time.Duration, store LeadStore) *testEnv {
	t.Helper()

	table, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default() error = %v", err)
	}
	analyzer, err := leads.New(table)
	if err != nil {
		t.Fatalf("leads.New() error = %v", err)
	}

	clock := &steppingClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local), step: step}
	log := audit.New(audit.NewMemoryStore(), audit.Options{Cap: 100, Now: clock.Now})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	op := middleware.NewOperatorMiddleware("")
	leadHandler := NewLeadHandler(store, analyzer, log)
	auditHandler := NewAuditHandler(log, analyzer)

	api := app.Group("/api", op.RequireOperator)
	api.Post("/analyze", NewAnalyzeHandler(analyzer).Analyze)
	api.Get("/leads", leadHandler.List)
	api.Post("/leads", leadHandler.Create)
	api.Get("/leads/:id", leadHandler.Get)
	api.Delete("/leads/:id", leadHandler.Delete)
	api.Post("/leads/:id/contact", leadHandler.Contact)
	api.Post("/leads/:id/notes", leadHandler.AddNote)
	api.Get("/leads/:id/notes", leadHandler.ListNotes)
	api.Get("/audit", auditHandler.List)
	api.Post("/audit", auditHandler.Append)
	api.Get("/audit/scores", auditHandler.Scores)

	return &testEnv{app: app, log: log, analyzer: analyzer}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

// do sends a request as operator and decodes the response envelope.
func (e *testEnv) do(t *testing.T, method, path, operator, body string) (int, envelope) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if operator != "" {
		req.Header.Set(middleware.DefaultOperatorHeader, operator)
	}

	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test(%s %s) error = %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

// createLead creates a lead and returns its stored form.
func (e *testEnv) createLead(t *testing.T, operator, body string) models.Lead {
	t.Helper()
	status, env := e.do(t, "POST", "/api/leads", operator, body)
	if status != fiber.StatusCreated {
		t.Fatalf("create lead status = %d, want %d (%s)", status, fiber.StatusCreated, env.Error)
	}
	return *decodeData[models.LeadResponse](t, env).Lead
}
