package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is a free-text remark an operator left on a lead.
type Note struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"lead_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
