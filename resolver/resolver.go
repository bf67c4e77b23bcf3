// Package resolver picks the concrete class to instantiate for a declared
// class, optionally by looking at the payload being mapped.
package resolver

import (
	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/mapping"
)

// ClassMap maps a declared class name to either a literal class name or a
// resolver function. Accepted function shapes:
//
//	func(payload any) string
//	func(payload any, ctx *mapping.Context) string
//	func(payload any) any
//	func(payload any, ctx *mapping.Context) any
//	func(payload any) (string, error)
//	func(payload any, ctx *mapping.Context) (string, error)
//
// Functions returning any are checked at resolution time and must yield a string.
type ClassMap map[string]any

// Func is the normalised resolver function.
type Func func(payload any, ctx *mapping.Context) (any, error)

type entry struct {
	literal string
	fn      Func
}

// Resolver is immutable once built and safe for concurrent use.
type Resolver struct {
	registry *classes.Registry
	entries  map[string]entry
}

// New validates every class map entry eagerly: literal targets must be
// loadable and functions must have a supported shape.
func New(registry *classes.Registry, classMap ClassMap) (*Resolver, error) {
	r := &Resolver{registry: registry, entries: make(map[string]entry, len(classMap))}
	if err := r.add(classMap); err != nil {
		return nil, err
	}
	return r, nil
}

// With returns a resolver whose class map is extended, and overridden, by classMap.
func (r *Resolver) With(classMap ClassMap) (*Resolver, error) {
	if len(classMap) == 0 {
		return r, nil
	}
	next := &Resolver{registry: r.registry, entries: make(map[string]entry, len(r.entries)+len(classMap))}
	for k, v := range r.entries {
		next.entries[k] = v
	}
	if err := next.add(classMap); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *Resolver) add(classMap ClassMap) error {
	const op errors.Op = "resolver.New"
	for declared, target := range classMap {
		switch t := target.(type) {
		case string:
			if !r.registry.Loadable(t) {
				return mapping.Configurationf(op, "class map entry for %q targets %q, which is not loadable", declared, t)
			}
			r.entries[declared] = entry{literal: t}
		default:
			fn, ok := normalise(target)
			if !ok {
				return mapping.Configurationf(op, "class map entry for %q has unsupported type %T", declared, target)
			}
			r.entries[declared] = entry{fn: fn}
		}
	}
	return nil
}

func normalise(target any) (Func, bool) {
	switch f := target.(type) {
	case nil:
		return nil, false
	case Func:
		return f, f != nil
	case func(any) string:
		return func(p any, _ *mapping.Context) (any, error) { return f(p), nil }, true
	case func(any, *mapping.Context) string:
		return func(p any, c *mapping.Context) (any, error) { return f(p, c), nil }, true
	case func(any) any:
		return func(p any, _ *mapping.Context) (any, error) { return f(p), nil }, true
	case func(any, *mapping.Context) any:
		return func(p any, c *mapping.Context) (any, error) { return f(p, c), nil }, true
	case func(any) (string, error):
		return func(p any, _ *mapping.Context) (any, error) { return f(p) }, true
	case func(any, *mapping.Context) (string, error):
		return func(p any, c *mapping.Context) (any, error) { return f(p, c) }, true
	default:
		return nil, false
	}
}

// Has reports whether declared has a class map entry.
func (r *Resolver) Has(declared string) bool {
	_, ok := r.entries[declared]
	return ok
}

// Resolve returns the concrete class for declared. Every failure is a configuration error.
func (r *Resolver) Resolve(declared string, payload any, ctx *mapping.Context) (string, error) {
	const op errors.Op = "resolver.Resolve"
	e, ok := r.entries[declared]
	if !ok {
		if !r.registry.Loadable(declared) {
			return "", mapping.Configurationf(op, "class %q is not loadable", declared)
		}
		return declared, nil
	}
	if e.fn == nil {
		return r.validate(op, declared, e.literal)
	}
	out, err := e.fn(payload, ctx)
	if err != nil {
		return "", mapping.WrapConfiguration(op, err, "class resolver for %q failed", declared)
	}
	name, isString := out.(string)
	if !isString {
		return "", mapping.Configurationf(op, "class resolver for %q must return a string, got %T", declared, out)
	}
	return r.validate(op, declared, name)
}

func (r *Resolver) validate(op errors.Op, declared, name string) (string, error) {
	if name == "" {
		return "", mapping.Configurationf(op, "class resolver for %q returned an empty class name", declared)
	}
	if !r.registry.Loadable(name) {
		return "", mapping.Configurationf(op, "class resolver for %q returned %q, which is not loadable", declared, name)
	}
	return name, nil
}
