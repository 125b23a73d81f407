package models

import (
	"leaddesk/internal/audit"
	"leaddesk/internal/leads"
)

// LeadResponse pairs a stored lead with a fresh analysis under the active rules.
type LeadResponse struct {
	Lead     *Lead          `json:"lead"`
	Analysis leads.Analysis `json:"analysis"`
}

// ContactResponse is returned when an operator opens a chat with a lead.
type ContactResponse struct {
	LeadID       string `json:"lead_id"`
	Platform     string `json:"platform"`
	DeepLink     string `json:"deep_link"`
	ContactCount int64  `json:"contact_count"`
	Risk         string `json:"risk"`
}

// AuditListResponse is a page of audit entries, most recent first.
type AuditListResponse struct {
	Entries []audit.Entry `json:"entries"`
	Cap     int           `json:"cap"`
}

// HealthResponse reports dependency status.
type HealthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	RulesVersion string `json:"rules_version"`
}
