package metadata

import (
	"sort"
	"sync"
)

// Registry holds the content types and the permissions granted to each role type.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*ContentType // keyed by singular name
	routes map[string]*ContentType // keyed by route segment
	grants map[string]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[string]*ContentType),
		routes: make(map[string]*ContentType),
		grants: make(map[string]map[string]bool),
	}
}

// Register adds or replaces content types.
func (r *Registry) Register(types ...*ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ct := range types {
		r.types[ct.Name] = ct
		r.routes[ct.Route()] = ct
	}
}

// Get returns the content type with the given singular name, or nil.
func (r *Registry) Get(name string) *ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// GetByRoute returns the content type served under the route segment, or nil.
func (r *Registry) GetByRoute(route string) *ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routes[route]
}

// All returns every registered content type ordered by name.
func (r *Registry) All() []*ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]*ContentType, 0, len(r.types))
	for _, ct := range r.types {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// LoadGrants replaces the permission table. grants maps role type to action uids.
func (r *Registry) LoadGrants(grants map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants = make(map[string]map[string]bool, len(grants))
	for role, actions := range grants {
		set := make(map[string]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		r.grants[role] = set
	}
}

// Allowed reports whether the role type holds the action.
func (r *Registry) Allowed(role, action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.grants[role][action]
}
