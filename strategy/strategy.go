// Package strategy converts decoded JSON values to declared types through an
// ordered chain of conversion strategies. The first strategy that supports a
// value converts it.
package strategy

import (
	"github.com/Station-Manager/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/collection"
	"github.com/Station-Manager/jsonmapper/custom"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
	"github.com/Station-Manager/jsonmapper/resolver"
)

// Strategy converts values for the declared types it supports. Apart from the
// returned value, its only side effects are writes to ctx.
type Strategy interface {
	Supports(value any, d descriptor.Descriptor, ctx *mapping.Context) bool
	Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error)
}

// Hydrator fills a new instance of a struct class from a decoded JSON object.
type Hydrator interface {
	Hydrate(class string, payload any, ctx *mapping.Context) (any, error)
}

// Chain tries its strategies in order. Union descriptors are narrowed to one
// alternative before dispatch.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Append adds strategies to the end of the chain. It must not be called once the chain is in use.
func (c *Chain) Append(strategies ...Strategy) {
	c.strategies = append(c.strategies, strategies...)
}

// Len returns the number of strategies.
func (c *Chain) Len() int { return len(c.strategies) }

// Convert converts value to d with the first supporting strategy.
func (c *Chain) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	const op errors.Op = "strategy.Chain.Convert"
	if d.IsUnion() {
		if len(d.Alternatives) == 0 {
			return nil, mapping.Configurationf(op, "empty union at %s", ctx.Path())
		}
		d = pickAlternative(value, d.Alternatives)
	}
	for _, s := range c.strategies {
		if s.Supports(value, d, ctx) {
			return s.Convert(value, d, ctx)
		}
	}
	return nil, mapping.Configurationf(op, "no strategy converts %s to %s at %s", mapping.DescribeValue(value), d, ctx.Path())
}

// pickAlternative chooses the first alternative matching the runtime kind of
// value: scalars by kind, objects for JSON objects, collections for arrays.
// Without a match the first alternative is used.
func pickAlternative(value any, alts []descriptor.Descriptor) descriptor.Descriptor {
	first := func(match func(descriptor.Descriptor) bool) (descriptor.Descriptor, bool) {
		for _, a := range alts {
			if match(a) {
				return a, true
			}
		}
		return descriptor.Descriptor{}, false
	}
	scalar := func(kinds ...descriptor.ScalarKind) (descriptor.Descriptor, bool) {
		for _, k := range kinds {
			if a, ok := first(func(a descriptor.Descriptor) bool { return a.IsScalar() && a.Scalar == k }); ok {
				return a, true
			}
		}
		return descriptor.Descriptor{}, false
	}

	var (
		picked descriptor.Descriptor
		ok     bool
	)
	switch v := value.(type) {
	case nil:
		picked, ok = first(func(a descriptor.Descriptor) bool { return a.Nullable || a.IsMixed() })
	case bool:
		picked, ok = scalar(descriptor.Bool)
	case string:
		if picked, ok = scalar(descriptor.String); !ok {
			picked, ok = first(descriptor.Descriptor.IsObject)
		}
	case []any, *collection.Entries:
		picked, ok = first(descriptor.Descriptor.IsCollection)
	case map[string]any, *orderedmap.OrderedMap[string, any]:
		if picked, ok = first(descriptor.Descriptor.IsObject); !ok {
			picked, ok = first(descriptor.Descriptor.IsCollection)
		}
	default:
		if n, isNum := number(v); isNum {
			if _, isInt := n.(int64); isInt {
				picked, ok = scalar(descriptor.Int, descriptor.Float)
			} else {
				picked, ok = scalar(descriptor.Float, descriptor.Int)
			}
			if !ok {
				picked, ok = first(descriptor.Descriptor.IsObject)
			}
		}
	}
	if !ok {
		if picked, ok = first(descriptor.Descriptor.IsMixed); !ok {
			return alts[0]
		}
	}
	return picked
}

// Deps are the collaborators of the default strategies.
type Deps struct {
	Registry *classes.Registry
	Handlers *custom.Registry
	Resolver *resolver.Resolver
	Factory  *collection.Factory
	Hydrator Hydrator
	// Extra strategies run after the null strategy and before custom handlers.
	Extra []Strategy
}

// Defaults returns the default strategies in their fixed order: null, custom,
// enum, date-time, collection, object, builtin and passthrough.
func Defaults(d Deps) []Strategy {
	out := make([]Strategy, 0, 8+len(d.Extra))
	out = append(out, &Null{registry: d.Registry})
	out = append(out, d.Extra...)
	if d.Handlers != nil {
		out = append(out, &Custom{handlers: d.Handlers})
	}
	return append(out,
		&Enum{registry: d.Registry},
		&DateTime{registry: d.Registry},
		&Collection{factory: d.Factory},
		&Object{registry: d.Registry, resolver: d.Resolver, hydrator: d.Hydrator},
		Builtin{},
		Passthrough{},
	)
}

func classOf(registry *classes.Registry, d descriptor.Descriptor) (*classes.Class, bool) {
	if !d.IsObject() || registry == nil {
		return nil, false
	}
	return registry.Lookup(d.Class)
}

func mismatch(ctx *mapping.Context, d descriptor.Descriptor, value any, cause error) error {
	return ctx.Reject(mapping.TypeMismatch(ctx.Path(), d.String(), value, cause))
}
