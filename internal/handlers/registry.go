package handlers

import (
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

// Registry is an ordered collection of handlers. Registration order is
// significant: when several handlers match a URL, the first registered wins.
// A Registry is safe for concurrent reads once construction is finished.
type Registry struct {
	handlers []domain.Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a handler. Duplicate registrations are tolerated
// silently; only the first copy is ever resolved.
func (r *Registry) Register(h domain.Handler) {
	r.handlers = append(r.handlers, h)
}

// Unregister removes a handler by identity. No-op when the handler is not
// registered.
func (r *Registry) Unregister(h domain.Handler) {
	for i, existing := range r.handlers {
		if existing == h {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			return
		}
	}
}

// Resolve scans in registration order and returns the first handler whose
// CanHandle matches, or nil when none matches.
func (r *Registry) Resolve(url string) domain.Handler {
	for _, h := range r.handlers {
		if h.CanHandle(url) {
			return h
		}
	}
	return nil
}

// List returns a copy of the registered handlers in order.
func (r *Registry) List() []domain.Handler {
	out := make([]domain.Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}
