// Package classes is the class loader of the mapper: it knows which Go types may
// be used as mapping targets, under which names, and how to instantiate them.
package classes

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Station-Manager/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/mapping"
)

// Names of the pre-registered date-time and duration classes.
const (
	TimeClass     = "time.Time"
	DurationClass = "time.Duration"
)

// Kind is the role a registered class plays during mapping.
type Kind int

const (
	KindStruct Kind = iota + 1
	KindInterface
	KindEnum
	KindCollection
	KindValue
	KindDateTime
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindCollection:
		return "collection"
	case KindValue:
		return "value"
	case KindDateTime:
		return "datetime"
	case KindDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Class is an immutable registration record.
type Class struct {
	Name string
	Type reflect.Type
	Kind Kind
	// Element is the element type of a collection class.
	Element reflect.Type

	ctor    func(*orderedmap.OrderedMap[any, any]) (any, error)
	members map[any]any
}

// Instantiable reports whether Create can build an instance of the class.
func (c *Class) Instantiable() bool {
	return c.Kind == KindStruct || c.Kind == KindCollection
}

// EnumMember returns the enum member backed by the given scalar. String
// enums accept strings only; integer enums accept integers and integral floats.
func (c *Class) EnumMember(backing any) (any, bool) {
	if c.Kind != KindEnum {
		return nil, false
	}
	key, ok := enumKey(c.Type, backing)
	if !ok {
		return nil, false
	}
	m, ok := c.members[key]
	return m, ok
}

// Members returns the enum members in no particular order.
func (c *Class) Members() []any {
	out := make([]any, 0, len(c.members))
	for _, m := range c.members {
		out = append(out, m)
	}
	return out
}

type snapshot struct {
	byName map[string]*Class
	byType map[reflect.Type]*Class
}

// Registry holds class registrations. Reads are lock-free against a
// copy-on-write snapshot; writers are serialised.
type Registry struct {
	state atomic.Value // holds *snapshot
	mu    sync.Mutex
}

// NewRegistry returns a registry with time.Time and time.Duration pre-registered.
func NewRegistry() *Registry {
	r := &Registry{}
	r.state.Store(&snapshot{byName: map[string]*Class{}, byType: map[reflect.Type]*Class{}})
	_, _ = r.add(&Class{Name: TimeClass, Type: reflect.TypeOf(time.Time{}), Kind: KindDateTime})
	_, _ = r.add(&Class{Name: DurationClass, Type: reflect.TypeOf(time.Duration(0)), Kind: KindDuration})
	return r
}

func (r *Registry) load() *snapshot { return r.state.Load().(*snapshot) }

// add stores c in a fresh snapshot. Registering the same type under the same name again is a no-op.
func (r *Registry) add(c *Class) (*Class, error) {
	const op errors.Op = "classes.Registry.add"
	if c.Name == "" {
		return nil, mapping.Configurationf(op, "cannot register %s without a class name", c.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.load()
	if existing, ok := old.byName[c.Name]; ok {
		if existing.Type == c.Type && existing.Kind == c.Kind {
			return existing, nil
		}
		return nil, mapping.Configurationf(op, "class name %q is already registered for %s", c.Name, existing.Type)
	}
	next := &snapshot{
		byName: make(map[string]*Class, len(old.byName)+1),
		byType: make(map[reflect.Type]*Class, len(old.byType)+1),
	}
	for k, v := range old.byName {
		next.byName[k] = v
	}
	for k, v := range old.byType {
		next.byType[k] = v
	}
	next.byName[c.Name] = c
	if _, ok := next.byType[c.Type]; !ok {
		next.byType[c.Type] = c
	}
	r.state.Store(next)
	return c, nil
}

// Register adds a struct or interface type under name. Pointer types are dereferenced.
func (r *Registry) Register(name string, typ reflect.Type) (*Class, error) {
	const op errors.Op = "classes.Registry.Register"
	if typ == nil {
		return nil, mapping.Configurationf(op, "nil type for class %q", name)
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if name == "" {
		name = typ.Name()
	}
	switch typ.Kind() {
	case reflect.Struct:
		return r.add(&Class{Name: name, Type: typ, Kind: KindStruct})
	case reflect.Interface:
		return r.add(&Class{Name: name, Type: typ, Kind: KindInterface})
	default:
		return nil, mapping.Configurationf(op, "class %q: %s is neither a struct nor an interface", name, typ)
	}
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	c, ok := r.load().byName[name]
	return c, ok
}

// ByType returns the first class registered for typ (pointer types are dereferenced).
func (r *Registry) ByType(typ reflect.Type) (*Class, bool) {
	if typ == nil {
		return nil, false
	}
	if typ.Kind() == reflect.Ptr && typ.Elem().Kind() != reflect.Ptr {
		if c, ok := r.load().byType[typ.Elem()]; ok {
			return c, true
		}
	}
	c, ok := r.load().byType[typ]
	return c, ok
}

// Loadable reports whether name refers to a registered class or interface.
func (r *Registry) Loadable(name string) bool {
	if name == "" {
		return false
	}
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered class names.
func (r *Registry) Names() []string {
	s := r.load()
	out := make([]string, 0, len(s.byName))
	for k := range s.byName {
		out = append(out, k)
	}
	return out
}

// Register adds struct or interface type T under its Go type name, or under name when given.
func Register[T any](r *Registry, name ...string) (*Class, error) {
	n := ""
	if len(name) > 0 {
		n = name[0]
	}
	return r.Register(n, reflect.TypeOf((*T)(nil)).Elem())
}

// MustRegister is Register that panics on error. Intended for package-level setup.
func MustRegister[T any](r *Registry, name ...string) *Class {
	c, err := Register[T](r, name...)
	if err != nil {
		panic(err)
	}
	return c
}

// RegisterInterface adds interface type T. Interfaces are valid targets only
// when a class map resolves them to a concrete class.
func RegisterInterface[T any](r *Registry, name ...string) (*Class, error) {
	const op errors.Op = "classes.RegisterInterface"
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Interface {
		return nil, mapping.Configurationf(op, "%s is not an interface", typ)
	}
	return Register[T](r, name...)
}

// Backing is the set of underlying kinds an enum may have.
type Backing interface {
	~string | ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// RegisterEnum adds T as a backed enum with the given members. The class name is T's Go type name.
func RegisterEnum[T Backing](r *Registry, members ...T) (*Class, error) {
	const op errors.Op = "classes.RegisterEnum"
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Name() == "" {
		return nil, mapping.Configurationf(op, "enum type %s must be a named type", typ)
	}
	if len(members) == 0 {
		return nil, mapping.Configurationf(op, "enum %s has no members", typ.Name())
	}
	c := &Class{Name: typ.Name(), Type: typ, Kind: KindEnum, members: make(map[any]any, len(members))}
	for _, m := range members {
		key, _ := enumKey(typ, m)
		c.members[key] = m
	}
	return r.add(c)
}

// RegisterCollection adds the named collection class C holding E elements.
// ctor receives the produced entries as its sole argument.
func RegisterCollection[C any, E any](r *Registry, ctor func(*orderedmap.OrderedMap[any, any]) (C, error), name ...string) (*Class, error) {
	const op errors.Op = "classes.RegisterCollection"
	if ctor == nil {
		return nil, mapping.Configurationf(op, "nil constructor")
	}
	typ := reflect.TypeOf((*C)(nil)).Elem()
	base := typ
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	n := base.Name()
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}
	c := &Class{
		Name:    n,
		Type:    base,
		Kind:    KindCollection,
		Element: reflect.TypeOf((*E)(nil)).Elem(),
		ctor: func(entries *orderedmap.OrderedMap[any, any]) (any, error) {
			return ctor(entries)
		},
	}
	return r.add(c)
}

// RegisterValue adds T as an opaque class that only custom handlers can produce.
func RegisterValue[T any](r *Registry, name ...string) (*Class, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	n := typ.String()
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}
	return r.add(&Class{Name: n, Type: typ, Kind: KindValue})
}

// enumKey normalises an enum backing value to string or int64.
func enumKey(typ reflect.Type, v any) (any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	if typ.Kind() == reflect.String {
		if rv.Kind() != reflect.String {
			return nil, false
		}
		return rv.String(), true
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return nil, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int64(f)) {
			return nil, false
		}
		return int64(f), true
	default:
		return nil, false
	}
}
