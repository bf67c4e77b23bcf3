package jsonmapper

import (
	stderrors "errors"
	"sort"

	"github.com/Station-Manager/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/mapping"
	"github.com/Station-Manager/jsonmapper/property"
)

// Hydrate instantiates class and applies every key of payload to it. In
// strict mode, required properties absent from payload are reported once all
// keys are applied.
func (r *run) Hydrate(class string, payload any, ctx *mapping.Context) (any, error) {
	const op errors.Op = "jsonmapper.Hydrate"
	c, ok := r.m.registry.Lookup(class)
	if !ok || c.Kind != classes.KindStruct {
		return nil, mapping.Configurationf(op, "class %q cannot be hydrated from an object", class)
	}
	entity, err := r.m.registry.Create(class)
	if err != nil {
		return nil, err
	}
	meta := r.m.reflection.Metadata(c.Type)
	r.m.logger.V(1).Info("hydrating", "class", class, "path", ctx.Path())

	seen := r.m.getSeen(len(meta.Fields))
	defer r.m.putSeen(seen)
	err = eachKey(payload, func(key string, raw any) error {
		return r.property(ctx, entity, class, meta, key, raw, seen)
	})
	if err != nil {
		return nil, err
	}

	if ctx.StrictMode() {
		for _, f := range meta.Required() {
			if seen[f.Name] {
				continue
			}
			if err := ctx.Fail(mapping.MissingProperty(ctx.PathWith(f.Name), class, f.Name)); err != nil {
				return nil, err
			}
		}
	}
	return entity, nil
}

// property applies one input key: rename, name conversion, declared-type
// conversion and the write, with every data error handled by ctx. The name
// converter only sees keys that no rename rule matched. Errors past the
// property lookup are reported under the property name; unknown keys are
// reported as given.
func (r *run) property(ctx *mapping.Context, entity any, class string, meta *property.Metadata, key string, raw any, seen map[string]bool) error {
	const op errors.Op = "jsonmapper.property"
	name := meta.Rename(key)
	if name == key && r.m.names != nil {
		name = r.m.names.Convert(key)
	}
	f, ok := meta.Field(name)
	if !ok {
		if ctx.IgnoreUnknownProperties() && !ctx.StrictMode() {
			return nil
		}
		return ctx.Fail(mapping.UnknownProperty(ctx.PathWith(key), class, key))
	}
	seen[f.Name] = true

	if s, isString := raw.(string); isString && s == "" && ctx.EmptyStringIsNull() {
		raw = nil
	}
	if raw == nil && f.NullDefault {
		return nil
	}
	d, err := r.m.types.PropertyType(class, f.Name)
	if err != nil {
		return mapping.WrapConfiguration(op, err, "no declared type for %s.%s", class, f.Name)
	}
	value, err := mapping.WithSegment(ctx, f.Name, func(c *mapping.Context) (any, error) {
		return r.chain.Convert(raw, d, c)
	})
	if stderrors.Is(err, mapping.ErrRejected) {
		return nil
	}
	if err != nil {
		return err
	}
	if value == nil && f.NullDefault {
		return nil
	}

	err = r.m.writer.Write(entity, f.Name, value)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, property.ErrReadonly):
		return ctx.Fail(mapping.ReadonlyProperty(ctx.PathWith(f.Name), class, f.Name))
	case stderrors.Is(err, property.ErrIncompatible):
		return ctx.Fail(mapping.TypeMismatch(ctx.PathWith(f.Name), d.String(), raw, err))
	default:
		return mapping.WrapConfiguration(op, err, "writing %s.%s", class, f.Name)
	}
}

// eachKey visits the keys of a decoded JSON object. Ordered objects keep their
// order; plain maps are visited in sorted key order.
func eachKey(payload any, fn func(key string, raw any) error) error {
	switch p := payload.(type) {
	case *orderedmap.OrderedMap[string, any]:
		for pair := p.Oldest(); pair != nil; pair = pair.Next() {
			if err := fn(pair.Key, pair.Value); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := fn(k, p[k]); err != nil {
				return err
			}
		}
	}
	return nil
}
