package offline

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// CacheStorage holds named cache generations of stored responses.
// store.SQLiteStore implements it for persistence across restarts.
type CacheStorage interface {
	CacheNames(ctx context.Context) ([]string, error)
	OpenCache(ctx context.Context, name string) error
	DeleteCache(ctx context.Context, name string) (bool, error)
	MatchCache(ctx context.Context, name, url string) (*model.CacheEntry, error)
	PutCache(ctx context.Context, name string, entry model.CacheEntry) error
	PutCacheAll(ctx context.Context, name string, entries []model.CacheEntry) error
}

// MemoryStorage is an in-process CacheStorage.
type MemoryStorage struct {
	mu     sync.RWMutex
	order  []string
	caches map[string]map[string]model.CacheEntry
}

var _ CacheStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]map[string]model.CacheEntry)}
}

func (m *MemoryStorage) CacheNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...), nil
}

func (m *MemoryStorage) OpenCache(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open(name)
	return nil
}

// open must be called with mu held.
func (m *MemoryStorage) open(name string) map[string]model.CacheEntry {
	entries, ok := m.caches[name]
	if !ok {
		entries = make(map[string]model.CacheEntry)
		m.caches[name] = entries
		m.order = append(m.order, name)
	}
	return entries
}

func (m *MemoryStorage) DeleteCache(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.caches[name]; !ok {
		return false, nil
	}
	delete(m.caches, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryStorage) MatchCache(ctx context.Context, name, url string) (*model.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.caches[name][url]
	if !ok {
		return nil, nil
	}
	entry.Header = entry.Header.Clone()
	entry.Body = append([]byte(nil), entry.Body...)
	return &entry, nil
}

func (m *MemoryStorage) PutCache(ctx context.Context, name string, entry model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open(name)[entry.URL] = stamp(entry)
	return nil
}

func (m *MemoryStorage) PutCacheAll(ctx context.Context, name string, entries []model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cache := m.open(name)
	for _, e := range entries {
		cache[e.URL] = stamp(e)
	}
	return nil
}

func stamp(e model.CacheEntry) model.CacheEntry {
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now()
	}
	if e.Header == nil {
		e.Header = http.Header{}
	}
	return e
}
