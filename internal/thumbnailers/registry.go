package thumbnailers

import (
	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/core/ports/driven"
)

// Registry holds the ordered list of generation backends. It is a plain
// value threaded through the cache service, never a process-wide
// singleton, so independent callers can run with independent backend
// lists.
type Registry struct {
	backends []driven.Thumbnailer
}

// NewRegistry creates a registry with the given backends, in preference
// order.
func NewRegistry(backends ...driven.Thumbnailer) *Registry {
	return &Registry{backends: backends}
}

// Register appends a backend at the end of the preference order.
func (r *Registry) Register(t driven.Thumbnailer) {
	r.backends = append(r.backends, t)
}

// All returns the full backend list in registration order.
func (r *Registry) All() []driven.Thumbnailer {
	out := make([]driven.Thumbnailer, len(r.backends))
	copy(out, r.backends)
	return out
}

// Select returns the subsequence of backends whose category set
// intersects the filter, preserving relative order. An empty filter
// means no filtering.
func (r *Registry) Select(filter ...domain.Category) []driven.Thumbnailer {
	if len(filter) == 0 {
		return r.All()
	}

	wanted := make(map[domain.Category]struct{}, len(filter))
	for _, c := range filter {
		wanted[c] = struct{}{}
	}

	var out []driven.Thumbnailer
	for _, t := range r.backends {
		for _, c := range t.Categories() {
			if _, ok := wanted[c]; ok {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.backends)
}
