// Package collection turns decoded JSON arrays and objects into ordered
// entries and, for named collection classes, into instances of those classes.
package collection

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
	"github.com/Station-Manager/jsonmapper/resolver"
)

// Entries is the ordered key/value structure produced for collections. Keys
// are ints for arrays and strings for objects.
type Entries = orderedmap.OrderedMap[any, any]

// NewEntries returns empty entries.
func NewEntries() *Entries {
	return orderedmap.New[any, any]()
}

// Values returns the entry values in order as E. nil values become the zero E.
func Values[E any](e *Entries) ([]E, error) {
	if e == nil {
		return nil, nil
	}
	out := make([]E, 0, e.Len())
	for p := e.Oldest(); p != nil; p = p.Next() {
		if p.Value == nil {
			var zero E
			out = append(out, zero)
			continue
		}
		v, ok := p.Value.(E)
		if !ok {
			return nil, fmt.Errorf("entry %v: %T is not %s", p.Key, p.Value, reflect.TypeOf((*E)(nil)).Elem())
		}
		out = append(out, v)
	}
	return out, nil
}

// Converter converts one value to a declared type. The strategy chain implements it.
type Converter interface {
	Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error)
}

// Factory builds collections for collection descriptors.
type Factory struct {
	registry  *classes.Registry
	resolver  *resolver.Resolver
	converter Converter
}

func NewFactory(registry *classes.Registry, res *resolver.Resolver, converter Converter) *Factory {
	return &Factory{registry: registry, resolver: res, converter: converter}
}

// MapIterable converts every value of json to valueType, keeping key order
// and key identity. It returns nil entries when json is null or not iterable.
// Values rejected by the converter are left out.
func (f *Factory) MapIterable(json any, valueType descriptor.Descriptor, ctx *mapping.Context) (*Entries, error) {
	var out *Entries
	add := func(key, raw any) error {
		v, err := mapping.WithSegment(ctx, key, func(c *mapping.Context) (any, error) {
			return f.converter.Convert(raw, valueType, c)
		})
		if stderrors.Is(err, mapping.ErrRejected) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Set(key, v)
		return nil
	}

	switch src := json.(type) {
	case []any:
		out = NewEntries()
		for i, raw := range src {
			if err := add(i, raw); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		out = NewEntries()
		keys := make([]string, 0, len(src))
		for k := range src {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := add(k, src[k]); err != nil {
				return nil, err
			}
		}
	case *orderedmap.OrderedMap[string, any]:
		if src == nil {
			return nil, nil
		}
		out = NewEntries()
		for p := src.Oldest(); p != nil; p = p.Next() {
			if err := add(p.Key, p.Value); err != nil {
				return nil, err
			}
		}
	case *Entries:
		if src == nil {
			return nil, nil
		}
		out = NewEntries()
		for p := src.Oldest(); p != nil; p = p.Next() {
			if err := add(p.Key, p.Value); err != nil {
				return nil, err
			}
		}
	default:
		return nil, nil
	}
	return out, nil
}

// FromCollectionType builds the collection described by d. Named collection
// classes are resolved and constructed with the entries; plain collections
// return the entries themselves.
func (f *Factory) FromCollectionType(d descriptor.Descriptor, json any, ctx *mapping.Context) (any, error) {
	var entries *Entries
	switch {
	case json == nil && ctx.TreatNullAsEmptyCollection():
		entries = NewEntries()
	case json == nil:
		return nil, nil
	default:
		var err error
		if entries, err = f.MapIterable(json, d.ValueType(), ctx); err != nil {
			return nil, err
		}
		if entries == nil {
			return nil, ctx.Reject(mapping.TypeMismatch(ctx.Path(), d.String(), json, nil))
		}
	}
	if d.Wrapper == "" {
		return entries, nil
	}
	class, err := f.resolver.Resolve(d.Wrapper, json, ctx)
	if err != nil {
		return nil, err
	}
	return f.registry.Create(class, entries)
}

// Iterable reports whether v is a decoded JSON array or object.
func Iterable(v any) bool {
	switch x := v.(type) {
	case []any, map[string]any:
		return true
	case *orderedmap.OrderedMap[string, any]:
		return x != nil
	case *Entries:
		return x != nil
	default:
		return false
	}
}
