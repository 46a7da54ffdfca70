package offline

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Registration owns the active controller for a scope. It is itself an
// http.RoundTripper: requests go through the active controller, or straight
// to the network while none is active.
type Registration struct {
	cfg     Config
	storage CacheStorage
	network http.RoundTripper

	mu      sync.RWMutex
	active  *Controller
	clients map[string]struct{}
}

var _ http.RoundTripper = (*Registration)(nil)

// NewRegistration creates a registration with no active controller.
func NewRegistration(cfg Config, storage CacheStorage, network http.RoundTripper) *Registration {
	if network == nil {
		network = http.DefaultTransport
	}
	return &Registration{
		cfg:     cfg,
		storage: storage,
		network: network,
		clients: make(map[string]struct{}),
	}
}

// Register makes a controller for the configured generation active. A
// generation that is already stored is activated without refetching. When
// installing a new generation fails, the most recent stored generation
// keeps serving and the install error is returned.
func (r *Registration) Register(ctx context.Context) error {
	if r.Current() {
		return nil
	}

	names, err := r.storage.CacheNames(ctx)
	if err != nil {
		return fmt.Errorf("listing cache generations: %w", err)
	}

	for _, name := range names {
		if name == r.cfg.CacheName {
			return r.activateStored(ctx, name)
		}
	}

	c, err := NewController(r.cfg, r.storage, r.network)
	if err != nil {
		return err
	}
	installErr := c.Install(ctx)
	if installErr == nil {
		return r.activate(ctx, c)
	}

	if r.Active() == nil && len(names) > 0 {
		previous := names[len(names)-1]
		if err := r.activateStored(ctx, previous); err != nil {
			log.Printf("offline: falling back to %s: %v", previous, err)
		} else {
			log.Printf("offline: %s keeps serving", previous)
		}
	}
	return installErr
}

func (r *Registration) activateStored(ctx context.Context, name string) error {
	cfg := r.cfg
	cfg.CacheName = name

	c, err := NewController(cfg, r.storage, r.network)
	if err != nil {
		return err
	}
	c.adopt()
	return r.activate(ctx, c)
}

func (r *Registration) activate(ctx context.Context, c *Controller) error {
	r.mu.RLock()
	for id := range r.clients {
		c.adoptClient(id)
	}
	r.mu.RUnlock()

	if err := c.Activate(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.active = c
	r.mu.Unlock()
	return nil
}

// Active returns the active controller, or nil.
func (r *Registration) Active() *Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Current reports whether the active controller serves the configured
// generation. It is false while nothing is active and after a failed
// upgrade left an older generation serving.
func (r *Registration) Current() bool {
	active := r.Active()
	return active != nil && active.Name() == r.cfg.CacheName
}

// Attach registers an application instance and returns its client ID. The
// client is claimed by the current controller and by every later one.
func (r *Registration) Attach() string {
	id := uuid.NewString()

	r.mu.Lock()
	r.clients[id] = struct{}{}
	active := r.active
	r.mu.Unlock()

	if active != nil {
		active.adoptClient(id)
	}
	return id
}

// Known reports whether id was handed out by Attach.
func (r *Registration) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[id]
	return ok
}

// RoundTrip implements http.RoundTripper.
func (r *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	if active := r.Active(); active != nil {
		return active.RoundTrip(req)
	}
	return r.network.RoundTrip(req)
}

// Refresh refreshes the active controller's shell document.
func (r *Registration) Refresh(ctx context.Context) error {
	active := r.Active()
	if active == nil {
		return ErrNotRegistered
	}
	return active.Refresh(ctx)
}
