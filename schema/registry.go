package schema

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPathConflict is returned when a path is registered for two types.
var ErrPathConflict = errors.New("schema path already registered")

// Registry maps additional-data paths to schema types. It is populated by
// explicit Register calls at startup.
type Registry struct {
	mu     sync.RWMutex
	byPath map[string]*Type
	byName map[string]*Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byPath: make(map[string]*Type),
		byName: make(map[string]*Type),
	}
}

// Register adds a type and all of its paths. Registering a type again under
// the same name replaces it; a path claimed by a different type is an error.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("register schema type: name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range t.Paths {
		if existing, ok := r.byPath[p]; ok && existing.Name != t.Name {
			return fmt.Errorf("%w: %s is mapped to %s", ErrPathConflict, p, existing.Name)
		}
	}
	if old, ok := r.byName[t.Name]; ok {
		for _, p := range old.Paths {
			delete(r.byPath, p)
		}
	}
	r.byName[t.Name] = t
	for _, p := range t.Paths {
		r.byPath[p] = t
	}
	return nil
}

// Lookup returns the type registered for a path.
func (r *Registry) Lookup(path string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byPath[path]
	return t, ok
}

// Type returns a type by name.
func (r *Registry) Type(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}
