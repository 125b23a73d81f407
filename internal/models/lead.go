package models

import (
	"time"

	"github.com/google/uuid"

	"leaddesk/internal/leads"
)

// Lead is a merchant contact worked by the sales desk. Country, Platform and
// Tier are the analysis snapshot taken when the lead was created.
type Lead struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	Source          string     `json:"source"`
	Country         string     `json:"country"`
	Platform        string     `json:"platform"`
	Tier            string     `json:"tier"`
	CreatedBy       string     `json:"created_by"`
	ContactCount    int64      `json:"contact_count"`
	LastContactedAt *time.Time `json:"last_contacted_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Contact returns the analyzer input for the lead.
func (l *Lead) Contact() leads.Contact {
	return leads.Contact{Name: l.Name, Phone: l.Phone, Address: l.Address, Source: l.Source}
}

// ApplyAnalysis stores the routing and tier snapshot on the lead.
func (l *Lead) ApplyAnalysis(a leads.Analysis) {
	l.Country = a.Route.CountryLabel
	l.Platform = a.Route.Platform.String()
	l.Tier = a.Classification.Tier.String()
}

// WasContacted reports whether the lead has been contacted at least once.
func (l *Lead) WasContacted() bool {
	return l.ContactCount > 0
}
