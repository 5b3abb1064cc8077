package modem

import "sync"

// Registry routes incoming messages by sender to handlers that take
// precedence over the default SMS handler. Numbers are matched verbatim,
// so a route must use the exact form the network reports.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]SMSHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]SMSHandler)}
}

// Register routes messages from number to h, replacing any previous route.
func (r *Registry) Register(number string, h SMSHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[number] = h
}

// Unregister removes the route for number. Unknown numbers are ignored.
func (r *Registry) Unregister(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, number)
}

// Reset removes every route.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.routes)
}

// Lookup returns the route for number, if any. Routes are not removed by
// being looked up.
func (r *Registry) Lookup(number string) (SMSHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.routes[number]
	return h, ok
}

// Len reports how many routes are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
