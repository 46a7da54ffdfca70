package store

import (
	"context"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// RecordStore defines the persistence contract for fuel records.
// Every method is atomic on its own.
type RecordStore interface {
	// CreateRecord inserts rec and returns the assigned ID.
	CreateRecord(ctx context.Context, rec model.FuelRecord) (int64, error)

	// CreateRecords inserts a batch in a single transaction: either every
	// record is stored or none is.
	CreateRecords(ctx context.Context, recs []model.FuelRecord) ([]int64, error)

	// GetRecord returns model.ErrRecordNotFound when id does not exist.
	GetRecord(ctx context.Context, id int64) (*model.FuelRecord, error)

	// UpdateRecord replaces every content field of the record with rec.ID.
	UpdateRecord(ctx context.Context, rec model.FuelRecord) error

	DeleteRecord(ctx context.Context, id int64) error
	DeleteAllRecords(ctx context.Context) error

	// ListRecords returns every record in storage order.
	ListRecords(ctx context.Context) ([]model.FuelRecord, error)

	// ListRecordsBetween returns records with from <= date <= to using the
	// date index. An empty bound is open.
	ListRecordsBetween(ctx context.Context, from, to string) ([]model.FuelRecord, error)
}

// CacheStore defines persistence for offline cache generations.
type CacheStore interface {
	// CacheNames lists the stored generations, oldest first.
	CacheNames(ctx context.Context) ([]string, error)

	// OpenCache creates the generation if it does not exist.
	OpenCache(ctx context.Context, name string) error

	// DeleteCache removes a generation and its entries. It reports whether
	// the generation existed.
	DeleteCache(ctx context.Context, name string) (bool, error)

	// MatchCache returns nil when url is not cached in the generation.
	MatchCache(ctx context.Context, name, url string) (*model.CacheEntry, error)

	// PutCache stores one entry, creating the generation when needed.
	PutCache(ctx context.Context, name string, entry model.CacheEntry) error

	// PutCacheAll creates the generation and stores every entry in a single
	// transaction.
	PutCacheAll(ctx context.Context, name string, entries []model.CacheEntry) error
}
