package chat

import (
	"fmt"
	"sync"
)

// Factory builds the controller for a user the first time it is requested.
type Factory func(userID string) (*Controller, error)

// Registry keeps one controller per user.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	factory     Factory
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		controllers: make(map[string]*Controller),
		factory:     factory,
	}
}

// Get returns the user's controller, creating it on first use.
func (r *Registry) Get(userID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[userID]; ok {
		return c, nil
	}
	c, err := r.factory(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", userID, err)
	}
	r.controllers[userID] = c
	activeSessions.Inc()
	return c, nil
}

// Drop forgets a user's controller.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.controllers[userID]; ok {
		delete(r.controllers, userID)
		activeSessions.Dec()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
