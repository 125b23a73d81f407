package db

import "errors"

// Domain-level database error sentinels.
var (
	// Lead errors
	ErrLeadNotFound = errors.New("lead not found")

	// Note errors
	ErrNoteNotFound = errors.New("note not found")
)
