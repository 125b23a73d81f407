package api

import (
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"leaddesk/internal/audit"
	"leaddesk/internal/models"
)

func TestLeadHandler_Create(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantCountry  string
		wantPlatform string
		wantTier     string
	}{
		{
			name:         "vietnamese wholesaler",
			body:         `{"name":"Cửa hàng Sỉ mỹ phẩm","phone":"0912345678","address":"Hà Nội"}`,
			wantStatus:   fiber.StatusCreated,
			wantCountry:  "Vietnam",
			wantPlatform: "Zalo",
			wantTier:     "wholesale",
		},
		{
			name:         "thai premium",
			body:         `{"name":"Lotus Beauty","phone":"+66891234567","address":"Siam Paragon, Bangkok"}`,
			wantStatus:   fiber.StatusCreated,
			wantCountry:  "Thailand",
			wantPlatform: "Line",
			wantTier:     "premium",
		},
		{
			name:       "missing name",
			body:       `{"phone":"0912345678"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"name":`,
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 5*time.Second)

			status, resp := env.do(t, "POST", "/api/leads", "alice", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", status, tt.wantStatus, resp.Error)
			}
			if tt.wantStatus != fiber.StatusCreated {
				if resp.Status != "error" {
					t.Errorf("envelope status = %q, want error", resp.Status)
				}
				if got := len(env.log.Entries(t.Context())); got != 0 {
					t.Errorf("audit entries = %d, want 0", got)
				}
				return
			}

			lead := decodeData[models.LeadResponse](t, resp).Lead
			if lead.Country != tt.wantCountry {
				t.Errorf("Country = %q, want %q", lead.Country, tt.wantCountry)
			}
			if lead.Platform != tt.wantPlatform {
				t.Errorf("Platform = %q, want %q", lead.Platform, tt.wantPlatform)
			}
			if lead.Tier != tt.wantTier {
				t.Errorf("Tier = %q, want %q", lead.Tier, tt.wantTier)
			}
			if lead.CreatedBy != "alice" {
				t.Errorf("CreatedBy = %q, want alice", lead.CreatedBy)
			}

			entries := env.log.Entries(t.Context())
			if len(entries) != 1 {
				t.Fatalf("audit entries = %d, want 1", len(entries))
			}
			if entries[0].Action != "create" || entries[0].Score != 2 {
				t.Errorf("audit entry = %s/%d, want create/2", entries[0].Action, entries[0].Score)
			}
		})
	}
}

func TestLeadHandler_RequiresOperator(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)

	status, resp := env.do(t, "POST", "/api/leads", "", `{"name":"Mimi"}`)
	if status != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want %d (%s)", status, fiber.StatusUnauthorized, resp.Error)
	}
}

func TestLeadHandler_Get(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	lead := env.createLead(t, "alice", `{"name":"Mimi","phone":"+15551234567"}`)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing lead", "/api/leads/" + lead.ID.String(), fiber.StatusOK},
		{"unknown lead", "/api/leads/" + uuid.NewString(), fiber.StatusNotFound},
		{"invalid id", "/api/leads/not-a-uuid", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := env.do(t, "GET", tt.path, "bob", "")
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", status, tt.wantStatus, resp.Error)
			}
			if status != fiber.StatusOK {
				return
			}
			got := decodeData[models.LeadResponse](t, resp)
			if got.Lead.ID != lead.ID {
				t.Errorf("Lead.ID = %s, want %s", got.Lead.ID, lead.ID)
			}
			if got.Analysis.Route.DeepLink != "https://wa.me/15551234567" {
				t.Errorf("DeepLink = %q, want https://wa.me/15551234567", got.Analysis.Route.DeepLink)
			}
		})
	}

	entries := env.log.Entries(t.Context())
	if len(entries) != 2 || entries[0].Action != "view" || entries[0].Actor != "bob" {
		t.Errorf("audit head = %+v, want one view by bob after create", entries)
	}
}

func TestLeadHandler_List(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	env.createLead(t, "alice", `{"name":"Lotus Beauty","address":"Bangkok"}`)
	env.createLead(t, "alice", `{"name":"Mimi Shop","address":"Hà Nội"}`)

	tests := []struct {
		name       string
		query      string
		wantLeads  int
		wantSearch bool
	}{
		{"all leads", "/api/leads", 2, false},
		{"filtered", "/api/leads?q=bangkok", 1, true},
		{"limited", "/api/leads?limit=1", 1, false},
		{"no match", "/api/leads?q=nowhere", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.log.Entries(t.Context()))

			status, resp := env.do(t, "GET", tt.query, "alice", "")
			if status != fiber.StatusOK {
				t.Fatalf("status = %d, want 200 (%s)", status, resp.Error)
			}
			if got := len(decodeData[[]models.Lead](t, resp)); got != tt.wantLeads {
				t.Errorf("leads = %d, want %d", got, tt.wantLeads)
			}

			entries := env.log.Entries(t.Context())
			searched := len(entries) > before && entries[0].Action == "search"
			if searched != tt.wantSearch {
				t.Errorf("search audited = %v, want %v", searched, tt.wantSearch)
			}
		})
	}
}

func TestLeadHandler_ListKeepsActorAndQuery(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	env.createLead(t, "alice", `{"name":"Lotus Beauty","address":"Bangkok"}`)

	calls := []struct {
		operator string
		query    string
	}{
		{"bob", "lotus"},
		{"zzzzzzzzzzzz", "bangkok"},
		{"carol", "x"},
		{"yyyyyyyyyyyy", "beauty salon"},
		{"al", "hanoi"},
	}
	for _, call := range calls {
		status, resp := env.do(t, "GET", "/api/leads?q="+url.QueryEscape(call.query), call.operator, "")
		if status != fiber.StatusOK {
			t.Fatalf("search as %s status = %d (%s)", call.operator, status, resp.Error)
		}
		env.do(t, "POST", "/api/audit", call.operator, `{"action":"note","target":"desk"}`)
	}

	entries := env.log.Entries(t.Context())
	var searches, notes []audit.Entry
	for _, e := range entries {
		switch e.Action {
		case "search":
			searches = append(searches, e)
		case "note":
			notes = append(notes, e)
		}
	}
	if len(searches) != len(calls) || len(notes) != len(calls) {
		t.Fatalf("searches = %d, notes = %d, want %d each", len(searches), len(notes), len(calls))
	}

	// entries are newest first
	for i, call := range calls {
		j := len(calls) - 1 - i
		if searches[j].Actor != call.operator {
			t.Errorf("search %d actor = %q, want %q", i, searches[j].Actor, call.operator)
		}
		if searches[j].Target != call.query {
			t.Errorf("search %d target = %q, want %q", i, searches[j].Target, call.query)
		}
		if notes[j].Actor != call.operator {
			t.Errorf("note %d actor = %q, want %q", i, notes[j].Actor, call.operator)
		}
	}
}

func TestLeadHandler_ListStoreError(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	env.store.fail = true

	status, resp := env.do(t, "GET", "/api/leads", "alice", "")
	if status != fiber.StatusInternalServerError {
		t.Errorf("status = %d, want %d", status, fiber.StatusInternalServerError)
	}
	if resp.Error != "failed to fetch leads" {
		t.Errorf("error = %q, want %q", resp.Error, "failed to fetch leads")
	}
}

func TestLeadHandler_Contact(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	lead := env.createLead(t, "alice", `{"name":"Cửa hàng Sỉ","phone":"0912345678"}`)
	path := "/api/leads/" + lead.ID.String() + "/contact"

	status, resp := env.do(t, "POST", path, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, resp.Error)
	}

	got := decodeData[models.ContactResponse](t, resp)
	want := models.ContactResponse{
		LeadID:       lead.ID.String(),
		Platform:     "Zalo",
		DeepLink:     "https://zalo.me/84912345678",
		ContactCount: 1,
		Risk:         "Normal",
	}
	if got != want {
		t.Errorf("Contact() = %+v, want %+v", got, want)
	}

	head := env.log.Entries(t.Context())[0]
	if head.Action != "contact" || head.Score != 10 {
		t.Errorf("audit head = %s/%d, want contact/10", head.Action, head.Score)
	}

	status, _ = env.do(t, "POST", "/api/leads/"+uuid.NewString()+"/contact", "alice", "")
	if status != fiber.StatusNotFound {
		t.Errorf("unknown lead status = %d, want %d", status, fiber.StatusNotFound)
	}
}

func TestLeadHandler_ContactHighFrequency(t *testing.T) {
	env := newTestEnv(t, 200*time.Millisecond)
	lead := env.createLead(t, "alice", `{"name":"Mimi","phone":"+15551234567"}`)
	path := "/api/leads/" + lead.ID.String() + "/contact"

	_, resp := env.do(t, "POST", path, "alice", "")
	got := decodeData[models.ContactResponse](t, resp)
	if got.Risk != "HighFrequency" {
		t.Errorf("Risk = %q, want HighFrequency", got.Risk)
	}

	head := env.log.Entries(t.Context())[0]
	if head.Risk != audit.HighFrequency || head.Score != audit.DefaultPenalty {
		t.Errorf("audit head = %s/%d, want HighFrequency/%d", head.Risk, head.Score, audit.DefaultPenalty)
	}

	// Another operator is not affected by alice's pace.
	_, resp = env.do(t, "POST", path, "bob", "")
	if got := decodeData[models.ContactResponse](t, resp); got.Risk != "Normal" || got.ContactCount != 2 {
		t.Errorf("bob Contact() = %+v, want Normal with count 2", got)
	}
}

func TestLeadHandler_Delete(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	lead := env.createLead(t, "alice", `{"name":"Mimi"}`)
	path := "/api/leads/" + lead.ID.String()

	status, resp := env.do(t, "DELETE", path, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, resp.Error)
	}
	if env.log.Entries(t.Context())[0].Action != "delete" {
		t.Errorf("audit head action = %q, want delete", env.log.Entries(t.Context())[0].Action)
	}

	status, _ = env.do(t, "DELETE", path, "alice", "")
	if status != fiber.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", status, fiber.StatusNotFound)
	}
}

func TestLeadHandler_Notes(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	lead := env.createLead(t, "alice", `{"name":"Mimi"}`)
	path := "/api/leads/" + lead.ID.String() + "/notes"

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"valid note", path, `{"body":"  call back after Tết  "}`, fiber.StatusCreated},
		{"empty note", path, `{"body":"   "}`, fiber.StatusBadRequest},
		{"unknown lead", "/api/leads/" + uuid.NewString() + "/notes", `{"body":"hi"}`, fiber.StatusNotFound},
		{"invalid id", "/api/leads/x/notes", `{"body":"hi"}`, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := env.do(t, "POST", tt.path, "alice", tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", status, tt.wantStatus, resp.Error)
			}
		})
	}

	status, resp := env.do(t, "GET", path, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("list status = %d, want 200", status)
	}
	notes := decodeData[[]models.Note](t, resp)
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	if notes[0].Body != "call back after Tết" || notes[0].Author != "alice" {
		t.Errorf("note = %q by %q, want trimmed body by alice", notes[0].Body, notes[0].Author)
	}

	head := env.log.Entries(t.Context())[0]
	if head.Action != "note" || head.Score != 5 {
		t.Errorf("audit head = %s/%d, want note/5", head.Action, head.Score)
	}
}
