package converter

import (
	"sync"

	"github.com/c360studio/semonto/tracking"
)

// Registry holds converters in selection order. Converters with criteria are
// consulted before catch-all converters, each group in registration order.
type Registry struct {
	mu       sync.RWMutex
	specific []Converter
	catchAll []Converter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with the built-in converters: logger
// calls are ignored, parameters, metrics, tags and artifacts get their own
// converter and everything else is written as is.
func DefaultRegistry(deps Dependencies) *Registry {
	deps = deps.WithDefaults()
	r := NewRegistry()
	r.Register(NewIgnore(Criteria{StorageType: tracking.StorageTypeLoggerCall}, deps.Metrics))
	r.Register(NewParameter(deps))
	r.Register(NewMetric(deps))
	r.Register(NewTag(deps))
	r.Register(NewArtifact(deps))
	r.Register(NewGeneric(deps))
	return r
}

// Register appends a converter.
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Criteria().IsCatchAll() {
		r.catchAll = append(r.catchAll, c)
		return
	}
	r.specific = append(r.specific, c)
}

// Select returns the first converter applicable to obj, or nil.
func (r *Registry) Select(obj tracking.Object) Converter {
	for _, c := range r.Converters() {
		if c.Criteria().Matches(obj) {
			return c
		}
	}
	return nil
}

// Converters returns a snapshot of the converters in selection order.
func (r *Registry) Converters() []Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Converter, 0, len(r.specific)+len(r.catchAll))
	out = append(out, r.specific...)
	return append(out, r.catchAll...)
}
