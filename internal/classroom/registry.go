package classroom

import (
	"slices"
	"sync"
)

// Registry maps connection IDs to display names in insertion order.
// Overwriting a connection keeps its position; leaving and rejoining
// moves it to the end.
type Registry struct {
	mu    sync.Mutex
	order []string
	names map[string]string
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]string)}
}

func (r *Registry) Join(connectionID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[connectionID]; !exists {
		r.order = append(r.order, connectionID)
	}
	r.names[connectionID] = name
}

// Leave removes the connection and reports whether it was present.
func (r *Registry) Leave(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[connectionID]; !exists {
		return false
	}
	delete(r.names, connectionID)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == connectionID })
	return true
}

// FindByName returns the first connection registered under name.
func (r *Registry) FindByName(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if r.names[id] == name {
			return id, true
		}
	}
	return "", false
}

// Names returns display names in registry order. Never nil.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.order))
	for _, id := range r.order {
		names = append(names, r.names[id])
	}
	return names
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
