package strategy

import (
	"encoding"
	stderrors "errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/collection"
	"github.com/Station-Manager/jsonmapper/custom"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
	"github.com/Station-Manager/jsonmapper/resolver"
)

var errNotCastable = stderrors.New("class cannot be built from a scalar")

// Custom delegates to user-registered handlers, ahead of every built-in strategy.
type Custom struct {
	handlers *custom.Registry
}

func (s *Custom) Supports(value any, d descriptor.Descriptor, _ *mapping.Context) bool {
	return s.handlers.Supports(d, value)
}

// Convert runs the handler. Handler errors that are not configuration or data
// errors become type mismatches.
func (s *Custom) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	out, err := s.handlers.Convert(d, value, ctx)
	if err == nil {
		return out, nil
	}
	var me *mapping.Error
	switch {
	case stderrors.Is(err, mapping.ErrConfiguration), stderrors.Is(err, mapping.ErrRejected):
		return nil, err
	case stderrors.As(err, &me):
		return nil, ctx.Reject(me)
	default:
		return nil, mismatch(ctx, d, value, err)
	}
}

// Enum looks up backed-enum members by their backing value.
type Enum struct {
	registry *classes.Registry
}

func (s *Enum) Supports(_ any, d descriptor.Descriptor, _ *mapping.Context) bool {
	c, ok := classOf(s.registry, d)
	return ok && c.Kind == classes.KindEnum
}

func (s *Enum) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	c, _ := classOf(s.registry, d)
	if value == nil {
		return nil, mismatch(ctx, d, value, nil)
	}
	if reflect.TypeOf(value) == c.Type {
		return value, nil
	}
	backing := value
	if n, ok := number(value); ok {
		backing = n
	}
	if m, ok := c.EnumMember(backing); ok {
		return m, nil
	}
	return nil, mismatch(ctx, d, value, fmt.Errorf("%v is not a value of %s", value, c.Name))
}

// Collection builds arrays, maps and named collection classes.
type Collection struct {
	factory *collection.Factory
}

func (s *Collection) Supports(_ any, d descriptor.Descriptor, _ *mapping.Context) bool {
	return d.IsCollection()
}

func (s *Collection) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	return s.factory.FromCollectionType(d, value, ctx)
}

// Object resolves the concrete class of an object type and hydrates it from a
// JSON object. With scalar casting enabled, classes implementing
// encoding.TextUnmarshaler or json.Unmarshaler are also built from scalars.
type Object struct {
	registry *classes.Registry
	resolver *resolver.Resolver
	hydrator Hydrator
}

func (s *Object) Supports(_ any, d descriptor.Descriptor, _ *mapping.Context) bool {
	return d.IsObject()
}

func (s *Object) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	if value == nil {
		return nil, nil
	}
	if isObject(value) {
		class, err := s.resolver.Resolve(d.Class, value, ctx)
		if err != nil {
			return nil, err
		}
		return s.hydrator.Hydrate(class, value, ctx)
	}
	if c, ok := s.registry.Lookup(d.Class); ok && isInstance(value, c.Type) {
		return value, nil
	}
	if !ctx.AllowScalarToObjectCasting() || collection.Iterable(value) {
		return nil, mismatch(ctx, d, value, nil)
	}
	class, err := s.resolver.Resolve(d.Class, value, ctx)
	if err != nil {
		return nil, err
	}
	c, _ := s.registry.Lookup(class)
	out, err := castScalar(c.Type, value)
	if err != nil {
		return nil, mismatch(ctx, d, value, err)
	}
	return out, nil
}

func isObject(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		return true
	case *orderedmap.OrderedMap[string, any]:
		return x != nil
	default:
		return false
	}
}

func isInstance(v any, typ reflect.Type) bool {
	vt := reflect.TypeOf(v)
	if vt == typ {
		return true
	}
	if typ.Kind() == reflect.Interface {
		return vt.Implements(typ)
	}
	return vt.Kind() == reflect.Ptr && vt.Elem() == typ
}

// castScalar builds a *typ from a scalar via UnmarshalText for strings, else UnmarshalJSON.
func castScalar(typ reflect.Type, value any) (any, error) {
	if typ.Kind() == reflect.Interface {
		return nil, errNotCastable
	}
	ptr := reflect.New(typ).Interface()
	if s, isString := value.(string); isString {
		if u, ok := ptr.(encoding.TextUnmarshaler); ok {
			if err := u.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return ptr, nil
		}
	}
	u, ok := ptr.(json.Unmarshaler)
	if !ok {
		return nil, errNotCastable
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if err := u.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return ptr, nil
}
