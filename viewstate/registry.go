// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package viewstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("view not found")

// View is per-page state with resources to release on teardown
type View interface {
	Close() error
}

type entry[V View] struct {
	view     V
	owner    string
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Registry holds the open views of one kind. Each view gets a context that
// is cancelled when the view is closed, whether explicitly, by idle expiry
// or at shutdown.
type Registry[V View] struct {
	mu    sync.Mutex
	name  string
	ttl   time.Duration
	views map[string]*entry[V]
	now   func() time.Time
}

// New creates a registry; ttl <= 0 disables idle expiry
func New[V View](name string, ttl time.Duration) *Registry[V] {
	return &Registry[V]{
		name:  name,
		ttl:   ttl,
		views: make(map[string]*entry[V]),
		now:   time.Now,
	}
}

// Open builds a view owned by owner and returns its id
func (r *Registry[V]) Open(owner string, build func(ctx context.Context) (V, error)) (string, V, error) {
	ctx, cancel := context.WithCancel(context.Background())
	v, err := build(ctx)
	if err != nil {
		cancel()
		var zero V
		return "", zero, err
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.views[id] = &entry[V]{view: v, owner: owner, cancel: cancel, lastSeen: r.now()}
	r.mu.Unlock()

	slog.Debug("view opened", "kind", r.name, "view_id", id)
	return id, v, nil
}

// Get returns an open view. Views owned by someone else are reported as
// not found.
func (r *Registry[V]) Get(id, owner string) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[id]
	if !ok || e.owner != owner {
		var zero V
		return zero, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.view, nil
}

// Close tears a view down
func (r *Registry[V]) Close(id, owner string) error {
	r.mu.Lock()
	e, ok := r.views[id]
	if !ok || e.owner != owner {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.views, id)
	r.mu.Unlock()

	r.teardown(id, e)
	return nil
}

// Sweep closes views idle for longer than the ttl and returns how many
func (r *Registry[V]) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	expired := make(map[string]*entry[V])
	for id, e := range r.views {
		if e.lastSeen.Before(cutoff) {
			expired[id] = e
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for id, e := range expired {
		r.teardown(id, e)
	}
	if len(expired) > 0 {
		slog.Info("expired idle views", "kind", r.name, "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx ends, then closes every view
func (r *Registry[V]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll tears down every open view
func (r *Registry[V]) CloseAll() {
	r.mu.Lock()
	all := r.views
	r.views = make(map[string]*entry[V])
	r.mu.Unlock()

	for id, e := range all {
		r.teardown(id, e)
	}
}

// Len returns the number of open views
func (r *Registry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry[V]) teardown(id string, e *entry[V]) {
	e.cancel()
	if err := e.view.Close(); err != nil {
		slog.Warn("view close failed", "kind", r.name, "view_id", id, "error", err)
	}
	slog.Debug("view closed", "kind", r.name, "view_id", id)
}
