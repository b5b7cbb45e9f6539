// Package service sequences every operation against the panel: it owns the
// per-entity in-flight guard, the cascade rules between collections, and the
// session lifecycle. All store writes happen here.
package service

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMutationInFlight is returned when a mutation is requested for an entity
// that already has one pending. Callers decide whether to retry after the
// first resolves; the orchestrator never interleaves them.
var ErrMutationInFlight = errors.New("another mutation for this entity is in flight")

// inflightGuard serializes mutations per (resource, id) pair.
type inflightGuard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{pending: make(map[string]struct{})}
}

// acquire reserves the (resource, id) slot. The returned release must be
// called when the mutation resolves, success or failure.
func (g *inflightGuard) acquire(resource string, id uint) (func(), error) {
	key := fmt.Sprintf("%s/%d", resource, id)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return nil, fmt.Errorf("%s %d: %w", resource, id, ErrMutationInFlight)
	}
	g.pending[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.pending, key)
		g.mu.Unlock()
	}, nil
}
