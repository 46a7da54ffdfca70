package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// CacheNames lists the stored cache generations, oldest first.
func (s *SQLiteStore) CacheNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT name FROM cache_generations ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("listing cache generations: %w", err)
	}
	return names, nil
}

// OpenCache creates the named generation if it is missing.
func (s *SQLiteStore) OpenCache(ctx context.Context, name string) error {
	if err := openCache(ctx, s.db, name); err != nil {
		return err
	}
	return nil
}

// DeleteCache removes a generation; its entries cascade.
func (s *SQLiteStore) DeleteCache(ctx context.Context, name string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_generations WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("deleting cache %s: %w", name, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// MatchCache looks up a cached response. It returns nil, nil on a miss.
func (s *SQLiteStore) MatchCache(
	ctx context.Context,
	name, url string,
) (*model.CacheEntry, error) {
	var (
		entry      model.CacheEntry
		headerJSON string
	)

	err := s.db.QueryRowxContext(ctx, `
		SELECT url, status, header, body, stored_at
		FROM cache_entries WHERE cache_name = ? AND url = ?`,
		name, url,
	).Scan(&entry.URL, &entry.Status, &headerJSON, &entry.Body, &entry.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("matching %s in cache %s: %w", url, name, err)
	}

	if headerJSON != "" {
		if err := json.Unmarshal([]byte(headerJSON), &entry.Header); err != nil {
			return nil, fmt.Errorf("unmarshaling cached header: %w", err)
		}
	}
	return &entry, nil
}

// PutCache stores a single entry, replacing any previous one for the URL.
func (s *SQLiteStore) PutCache(ctx context.Context, name string, entry model.CacheEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := openCache(ctx, tx, name); err != nil {
		return err
	}
	if err := putEntry(ctx, tx, name, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// PutCacheAll creates the generation and stores every entry atomically.
func (s *SQLiteStore) PutCacheAll(
	ctx context.Context,
	name string,
	entries []model.CacheEntry,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := openCache(ctx, tx, name); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := putEntry(ctx, tx, name, entry); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func openCache(ctx context.Context, db sqlx.ExtContext, name string) error {
	_, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO cache_generations (name, created_at) VALUES (?, ?)",
		name, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("opening cache %s: %w", name, err)
	}
	return nil
}

func putEntry(ctx context.Context, db sqlx.ExtContext, name string, entry model.CacheEntry) error {
	header := entry.Header
	if header == nil {
		header = http.Header{}
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header for %s: %w", entry.URL, err)
	}

	storedAt := entry.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	body := entry.Body
	if body == nil {
		body = []byte{}
	}

	_, err = db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (cache_name, url, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, entry.URL, entry.Status, string(headerJSON), body, storedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing %s in cache %s: %w", entry.URL, name, err)
	}
	return nil
}
