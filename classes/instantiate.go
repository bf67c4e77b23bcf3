package classes

import (
	"reflect"

	"github.com/Station-Manager/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/mapping"
)

// Initializer is implemented by classes that set their own defaults. It runs
// on the pointer receiver right after allocation and before any input is applied.
type Initializer interface {
	Initialize() error
}

var initializerType = reflect.TypeOf((*Initializer)(nil)).Elem()

// Create instantiates the class registered under name. Struct classes take no
// arguments and are returned as a pointer; collection classes take the entries
// as their single argument. Any failure is a configuration error.
func (r *Registry) Create(name string, args ...any) (any, error) {
	const op errors.Op = "classes.Registry.Create"
	c, ok := r.Lookup(name)
	if !ok {
		return nil, mapping.Configurationf(op, "class %q is not loadable", name)
	}
	switch c.Kind {
	case KindStruct:
		if len(args) != 0 {
			return nil, mapping.Configurationf(op, "class %q takes no constructor arguments, got %d", name, len(args))
		}
		return newStruct(op, c)
	case KindCollection:
		if len(args) != 1 {
			return nil, mapping.Configurationf(op, "collection class %q takes exactly one argument, got %d", name, len(args))
		}
		entries, isEntries := args[0].(*orderedmap.OrderedMap[any, any])
		if !isEntries {
			return nil, mapping.Configurationf(op, "collection class %q expects entries, got %T", name, args[0])
		}
		out, err := c.ctor(entries)
		if err != nil {
			return nil, mapping.WrapConfiguration(op, err, "collection constructor failed for %q", name)
		}
		return out, nil
	default:
		return nil, mapping.Configurationf(op, "class %q (%s) is not instantiable", name, c.Kind)
	}
}

func newStruct(op errors.Op, c *Class) (any, error) {
	ptr := reflect.New(c.Type)
	if ptr.Type().Implements(initializerType) {
		if err := ptr.Interface().(Initializer).Initialize(); err != nil {
			return nil, mapping.WrapConfiguration(op, err, "initializer failed for %q", c.Name)
		}
	}
	return ptr.Interface(), nil
}

// Defaults returns an initialised instance of a struct class, used to find out
// which properties carry a class-declared default.
func (r *Registry) Defaults(name string) (reflect.Value, error) {
	const op errors.Op = "classes.Registry.Defaults"
	c, ok := r.Lookup(name)
	if !ok || c.Kind != KindStruct {
		return reflect.Value{}, mapping.Configurationf(op, "class %q is not a struct class", name)
	}
	v, err := newStruct(op, c)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v).Elem(), nil
}
