// Package offline implements the offline cache controller: an
// http.RoundTripper that precaches the application shell, keeps serving it
// when the network is gone and garbage-collects stale cache generations.
//
// A controller moves through the install and activate phases before it
// intercepts anything:
//
//	new -> installing -> installed -> activating -> activated
//	            \-> redundant (install failed)
//
// Once activated, same-origin navigations are network-first with the cached
// shell document as fallback, and every other same-origin request is
// cache-first. Cross-origin requests always pass straight through.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/nhle/cub-fuel-log/internal/model"
)

// State is a controller lifecycle phase.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
	StateRedundant
)

var stateNames = [...]string{"new", "installing", "installed", "activating", "activated", "redundant"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

var (
	ErrInvalidState  = errors.New("invalid controller state")
	ErrNotRegistered = errors.New("no active offline controller")
)

// Config describes one cache generation of the application shell.
type Config struct {
	// CacheName names the generation, e.g. "cub-cache-v1".
	CacheName string

	// Scope is the absolute URL of the application shell's base directory.
	// Its origin decides which requests are intercepted.
	Scope string

	// Precache lists the shell assets relative to Scope.
	Precache []string

	// ShellDocument is the key navigations are cached under and fall back
	// to. Defaults to "./".
	ShellDocument string
}

// Controller is a single offline cache controller instance.
type Controller struct {
	cfg      Config
	scope    *url.URL
	shellKey string
	storage  CacheStorage
	network  http.RoundTripper

	mu          sync.RWMutex
	state       State
	skipWaiting bool
	clients     map[string]bool // client ID -> controlled
}

var _ http.RoundTripper = (*Controller)(nil)

// NewController creates a controller in StateNew. A nil network uses
// http.DefaultTransport.
func NewController(cfg Config, storage CacheStorage, network http.RoundTripper) (*Controller, error) {
	if cfg.CacheName == "" {
		return nil, errors.New("offline: cache name is required")
	}
	if storage == nil {
		return nil, errors.New("offline: cache storage is required")
	}

	scope, err := url.Parse(cfg.Scope)
	if err != nil {
		return nil, fmt.Errorf("offline: parsing scope %q: %w", cfg.Scope, err)
	}
	if !scope.IsAbs() || scope.Host == "" {
		return nil, fmt.Errorf("offline: scope %q must be an absolute URL", cfg.Scope)
	}
	if scope.Path == "" {
		scope.Path = "/"
	}

	if cfg.ShellDocument == "" {
		cfg.ShellDocument = "./"
	}
	if network == nil {
		network = http.DefaultTransport
	}

	c := &Controller{
		cfg:     cfg,
		scope:   scope,
		storage: storage,
		network: network,
		clients: make(map[string]bool),
	}
	c.shellKey = c.Resolve(cfg.ShellDocument)
	return c, nil
}

// Resolve returns the absolute cache key of a path relative to the scope.
func (c *Controller) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return cacheKey(c.scope.ResolveReference(ref))
}

// Name returns the cache generation name.
func (c *Controller) Name() string { return c.cfg.CacheName }

// ShellKey returns the cache key of the shell document.
func (c *Controller) ShellKey() string { return c.shellKey }

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SkipWaiting reports whether the controller asked to be activated as soon
// as it is installed.
func (c *Controller) SkipWaiting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skipWaiting
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Install fetches every precache asset and stores them as one generation.
// Any network error or non-2xx response fails the install, the controller
// becomes redundant and nothing is written.
func (c *Controller) Install(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateNew {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("installing %s in state %s: %w", c.cfg.CacheName, state, ErrInvalidState)
	}
	c.state = StateInstalling
	c.mu.Unlock()

	entries, err := c.fetchPrecache(ctx)
	if err == nil {
		err = c.storage.PutCacheAll(ctx, c.cfg.CacheName, entries)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateRedundant
		installs.WithLabelValues("failed").Inc()
		log.Printf("offline: install of %s failed: %v", c.cfg.CacheName, err)
		return fmt.Errorf("installing %s: %w", c.cfg.CacheName, err)
	}

	c.state = StateInstalled
	c.skipWaiting = true
	installs.WithLabelValues("ok").Inc()
	log.Printf("offline: installed %s (%d assets)", c.cfg.CacheName, len(entries))
	return nil
}

func (c *Controller) fetchPrecache(ctx context.Context) ([]model.CacheEntry, error) {
	entries := make([]model.CacheEntry, 0, len(c.cfg.Precache))
	for _, path := range c.cfg.Precache {
		key := c.Resolve(path)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", key, err)
		}
		resp, err := c.network.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", key, err)
		}
		if !isSuccess(resp.StatusCode) {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching %s: unexpected status %d", key, resp.StatusCode)
		}

		entry, err := capture(key, resp)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", key, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// adopt marks an already stored generation as installed so it can be
// activated without fetching it again.
func (c *Controller) adopt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateNew {
		c.state = StateInstalled
	}
}

// Activate deletes every other cache generation, then takes control of
// every attached client. Interception starts only once both are done.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateInstalled {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("activating %s in state %s: %w", c.cfg.CacheName, state, ErrInvalidState)
	}
	c.state = StateActivating
	c.mu.Unlock()

	if err := c.deleteStale(ctx); err != nil {
		c.mu.Lock()
		c.state = StateInstalled
		c.mu.Unlock()
		return fmt.Errorf("activating %s: %w", c.cfg.CacheName, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.clients {
		c.clients[id] = true
	}
	c.state = StateActivated
	log.Printf("offline: %s active, controlling %d clients", c.cfg.CacheName, len(c.clients))
	return nil
}

func (c *Controller) deleteStale(ctx context.Context) error {
	names, err := c.storage.CacheNames(ctx)
	if err != nil {
		return fmt.Errorf("listing cache generations: %w", err)
	}
	for _, name := range names {
		if name == c.cfg.CacheName {
			continue
		}
		if _, err := c.storage.DeleteCache(ctx, name); err != nil {
			return fmt.Errorf("deleting stale generation %s: %w", name, err)
		}
		log.Printf("offline: deleted stale generation %s", name)
	}
	return nil
}

// ─── Clients ────────────────────────────────────────────────────────────────

// Attach registers a new application instance and returns its client ID.
// Clients attached after activation are controlled immediately.
func (c *Controller) Attach() string {
	id := uuid.NewString()
	c.adoptClient(id)
	return id
}

func (c *Controller) adoptClient(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[id] = c.state == StateActivated
}

// Detach forgets a client.
func (c *Controller) Detach(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, id)
}

// Controls reports whether the client is served by this controller.
func (c *Controller) Controls(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clients[id]
}

// Clients returns the number of attached clients.
func (c *Controller) Clients() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

// ─── Interception ───────────────────────────────────────────────────────────

// RoundTrip routes a request. Before activation, and for other origins, it
// goes straight to the network.
func (c *Controller) RoundTrip(req *http.Request) (*http.Response, error) {
	if c.State() != StateActivated || !sameOrigin(req.URL, c.scope) {
		return c.network.RoundTrip(req)
	}
	if IsNavigation(req) {
		return c.networkFirst(req)
	}
	return c.cacheFirst(req)
}

func (c *Controller) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := c.network.RoundTrip(req)
	if err == nil && isSuccess(resp.StatusCode) {
		err = c.keep(req.Context(), c.shellKey, resp)
	}
	if err == nil {
		return resp, nil
	}

	networkFailures.Inc()
	cached, merr := c.storage.MatchCache(req.Context(), c.cfg.CacheName, c.shellKey)
	if merr != nil {
		log.Printf("offline: matching shell document: %v", merr)
	}
	if cached == nil {
		return nil, err
	}
	navigationFallbacks.Inc()
	return response(req, cached), nil
}

func (c *Controller) cacheFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req.URL)

	if req.Method == http.MethodGet {
		cached, err := c.storage.MatchCache(req.Context(), c.cfg.CacheName, key)
		if err != nil {
			log.Printf("offline: matching %s: %v", key, err)
		}
		if cached != nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return response(req, cached), nil
		}
		cacheLookups.WithLabelValues("miss").Inc()
	}

	resp, err := c.network.RoundTrip(req)
	if err != nil {
		networkFailures.Inc()
		return nil, err
	}
	if req.Method == http.MethodGet && isSuccess(resp.StatusCode) {
		if err := c.keep(req.Context(), key, resp); err != nil {
			networkFailures.Inc()
			return nil, err
		}
	}
	return resp, nil
}

// keep stores a copy of resp under key. Only reading the body can fail;
// storage failures are logged and counted.
func (c *Controller) keep(ctx context.Context, key string, resp *http.Response) error {
	entry, err := capture(key, resp)
	if err != nil {
		return err
	}
	if err := c.storage.PutCache(ctx, c.cfg.CacheName, entry); err != nil {
		cacheWriteFailures.Inc()
		log.Printf("offline: caching %s: %v", key, err)
	}
	return nil
}

// Refresh fetches the shell document as a navigation and updates the
// cached copy. A nil error means the network answered.
func (c *Controller) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.shellKey, nil)
	if err != nil {
		return fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Dest", "document")

	resp, err := c.network.RoundTrip(req)
	if err != nil {
		networkFailures.Inc()
		return fmt.Errorf("refreshing %s: %w", c.shellKey, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		log.Printf("offline: refresh of %s returned %d", c.shellKey, resp.StatusCode)
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := c.keep(ctx, c.shellKey, resp); err != nil {
		return fmt.Errorf("refreshing %s: %w", c.shellKey, err)
	}
	return nil
}
