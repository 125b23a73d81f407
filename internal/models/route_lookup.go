package models

import "time"

// RouteLookup is the number of analyses that resolved to a platform and tier.
type RouteLookup struct {
	Platform   string
	Tier       string
	Count      int64
	LastSeenAt time.Time
}
