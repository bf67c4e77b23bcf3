// Package custom holds user-registered converters that take precedence over
// the built-in conversion strategies.
package custom

import (
	"sync"
	"sync/atomic"

	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

// Handler converts values for the descriptors it supports.
type Handler interface {
	Supports(d descriptor.Descriptor, value any) bool
	Convert(d descriptor.Descriptor, value any, ctx *mapping.Context) (any, error)
}

// Func is the normalised converter signature.
type Func func(value any, ctx *mapping.Context) (any, error)

type classHandler struct {
	class string
	fn    Func
}

func (h *classHandler) Supports(d descriptor.Descriptor, _ any) bool {
	return d.Kind == descriptor.KindObject && d.Class == h.class
}

func (h *classHandler) Convert(_ descriptor.Descriptor, value any, ctx *mapping.Context) (any, error) {
	return h.fn(value, ctx)
}

// Registry is an ordered, copy-on-write list of handlers; the first supporting handler wins.
type Registry struct {
	handlers atomic.Value // holds []Handler
	mu       sync.Mutex
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.handlers.Store([]Handler(nil))
	return r
}

func (r *Registry) load() []Handler { return r.handlers.Load().([]Handler) }

// Register adds a converter for ObjectType(class). fn may be any of
//
//	func(value any) any
//	func(value any) (any, error)
//	func(value any, ctx *mapping.Context) any
//	func(value any, ctx *mapping.Context) (any, error)
func (r *Registry) Register(class string, fn any) error {
	const op errors.Op = "custom.Registry.Register"
	if class == "" {
		return mapping.Configurationf(op, "custom handler needs a class name")
	}
	var f Func
	switch c := fn.(type) {
	case nil:
	case Func:
		f = c
	case func(any) any:
		f = func(v any, _ *mapping.Context) (any, error) { return c(v), nil }
	case func(any) (any, error):
		f = func(v any, _ *mapping.Context) (any, error) { return c(v) }
	case func(any, *mapping.Context) any:
		f = func(v any, ctx *mapping.Context) (any, error) { return c(v, ctx), nil }
	case func(any, *mapping.Context) (any, error):
		f = c
	}
	if f == nil {
		return mapping.Configurationf(op, "unsupported converter %T for class %q", fn, class)
	}
	r.Add(&classHandler{class: class, fn: f})
	return nil
}

// Add appends a handler.
func (r *Registry) Add(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.load()
	next := make([]Handler, len(old), len(old)+1)
	copy(next, old)
	r.handlers.Store(append(next, h))
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int { return len(r.load()) }

// Supports reports whether any handler supports d for value.
func (r *Registry) Supports(d descriptor.Descriptor, value any) bool {
	return r.find(d, value) != nil
}

// Convert dispatches to the first supporting handler. Calling it without a
// supporting handler is a misuse of the registry and yields a configuration error.
func (r *Registry) Convert(d descriptor.Descriptor, value any, ctx *mapping.Context) (any, error) {
	const op errors.Op = "custom.Registry.Convert"
	h := r.find(d, value)
	if h == nil {
		return nil, mapping.Configurationf(op, "no custom handler supports %s", d)
	}
	return h.Convert(d, value, ctx)
}

func (r *Registry) find(d descriptor.Descriptor, value any) Handler {
	for _, h := range r.load() {
		if h.Supports(d, value) {
			return h
		}
	}
	return nil
}
