package model

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Record errors
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrNoRecords      = errors.New("no records")

	// Import errors
	ErrNoValidRows = errors.New("no valid rows to import")
	ErrNoNewRows   = errors.New("no new rows to import")

	// Storage errors
	ErrStoreUnavailable = errors.New("record store is not available")
)
