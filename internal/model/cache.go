package model

import (
	"net/http"
	"time"
)

// CacheEntry is a stored copy of an HTTP response held in a cache generation.
type CacheEntry struct {
	// URL is the cache key: the absolute request URL without fragment.
	URL string `json:"url" db:"url"`

	Status int         `json:"status" db:"status"`
	Header http.Header `json:"header" db:"-"`
	Body   []byte      `json:"-" db:"body"`

	StoredAt time.Time `json:"stored_at" db:"stored_at"`
}
