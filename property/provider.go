package property

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

// ErrNoProperty is returned for a property that the class does not declare.
var ErrNoProperty = stderrors.New("property is not declared")

// DefaultType is the descriptor used for fields whose Go type has no JSON counterpart.
var DefaultType = descriptor.Scalar(descriptor.String)

// TypeProvider returns the declared type of a class property. Results must be
// deterministic for a (class, property) pair.
type TypeProvider interface {
	PropertyType(class, property string) (descriptor.Descriptor, error)
}

type overrideKey struct{ class, property string }

// Reflection derives property types and metadata from registered Go structs.
// It is safe for concurrent use.
type Reflection struct {
	registry    *classes.Registry
	defaultType descriptor.Descriptor
	metadata    sync.Map     // map[reflect.Type]*Metadata
	overrides   atomic.Value // holds map[overrideKey]descriptor.Descriptor
	mu          sync.Mutex
}

type ReflectionOption func(*Reflection)

// WithDefaultType replaces DefaultType for this provider.
func WithDefaultType(d descriptor.Descriptor) ReflectionOption {
	return func(r *Reflection) { r.defaultType = d }
}

// NewReflection creates a provider over the given class registry.
func NewReflection(registry *classes.Registry, opts ...ReflectionOption) *Reflection {
	r := &Reflection{registry: registry, defaultType: DefaultType}
	r.overrides.Store(map[overrideKey]descriptor.Descriptor{})
	for _, o := range opts {
		o(r)
	}
	return r
}

// Registry returns the class registry the provider reads from.
func (r *Reflection) Registry() *classes.Registry { return r.registry }

// Override declares the type of a property explicitly, e.g. a union the Go
// field type cannot express.
func (r *Reflection) Override(class, property string, d descriptor.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.overrides.Load().(map[overrideKey]descriptor.Descriptor)
	next := make(map[overrideKey]descriptor.Descriptor, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[overrideKey{class, property}] = d
	r.overrides.Store(next)
}

// PropertyType implements TypeProvider.
func (r *Reflection) PropertyType(class, property string) (descriptor.Descriptor, error) {
	const op errors.Op = "property.Reflection.PropertyType"
	meta, err := r.ClassInfo(class)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	if d, ok := r.overrides.Load().(map[overrideKey]descriptor.Descriptor)[overrideKey{class, property}]; ok {
		return d, nil
	}
	f, ok := meta.Field(property)
	if !ok {
		return descriptor.Descriptor{}, fmt.Errorf("%w: %s.%s", ErrNoProperty, class, property)
	}
	d, err := r.describe(f.Type)
	if err != nil {
		return descriptor.Descriptor{}, mapping.WrapConfiguration(op, err, "describing %s.%s", class, property)
	}
	if f.Format != "" {
		d = d.WithFormat(f.Format)
	}
	return d, nil
}

// ClassInfo returns the metadata of a struct class.
func (r *Reflection) ClassInfo(class string) (*Metadata, error) {
	const op errors.Op = "property.Reflection.ClassInfo"
	c, ok := r.registry.Lookup(class)
	if !ok {
		return nil, mapping.Configurationf(op, "class %q is not loadable", class)
	}
	if c.Kind != classes.KindStruct {
		return nil, mapping.Configurationf(op, "class %q (%s) has no properties", class, c.Kind)
	}
	return r.Metadata(c.Type), nil
}

// Metadata returns the cached metadata of a struct type.
func (r *Reflection) Metadata(typ reflect.Type) *Metadata {
	if cached, ok := r.metadata.Load(typ); ok {
		return cached.(*Metadata)
	}
	actual, _ := r.metadata.LoadOrStore(typ, buildMetadata(typ))
	return actual.(*Metadata)
}

// WarmMetadata pre-builds metadata for the given example values or types.
func (r *Reflection) WarmMetadata(examples ...any) {
	for _, e := range examples {
		if e == nil {
			continue
		}
		t, ok := e.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(e)
		}
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			continue
		}
		_ = r.Metadata(t)
	}
}

// Describe maps a Go type to a descriptor. Unregistered named structs met on
// the way are registered under their Go type name. A struct whose name is
// already held by another type falls back to the default type; PropertyType
// reports that case as a configuration error.
func (r *Reflection) Describe(t reflect.Type) descriptor.Descriptor {
	d, _ := r.describe(t)
	return d
}

func (r *Reflection) describe(t reflect.Type) (descriptor.Descriptor, error) {
	if t == nil {
		return descriptor.Mixed(), nil
	}
	if t.Kind() == reflect.Ptr {
		d, err := r.describe(t.Elem())
		return d.AsNullable(), err
	}
	if c, ok := r.registry.ByType(t); ok && c.Type == t {
		return r.describeClass(c)
	}
	switch t.Kind() {
	case reflect.Bool:
		return descriptor.Scalar(descriptor.Bool), nil
	case reflect.String:
		return descriptor.Scalar(descriptor.String), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return descriptor.Scalar(descriptor.Int), nil
	case reflect.Float32, reflect.Float64:
		return descriptor.Scalar(descriptor.Float), nil
	case reflect.Slice, reflect.Array:
		elem, err := r.describe(t.Elem())
		return descriptor.Collection(descriptor.Scalar(descriptor.Int), elem).AsNullable(), err
	case reflect.Map:
		key, err := r.describe(t.Key())
		if err != nil {
			return r.defaultType, err
		}
		elem, err := r.describe(t.Elem())
		return descriptor.Collection(key, elem).AsNullable(), err
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return descriptor.Mixed(), nil
		}
		c, err := r.registry.Register("", t)
		if err != nil {
			return descriptor.Mixed(), err
		}
		d, err := r.describeClass(c)
		return d.AsNullable(), err
	case reflect.Struct:
		if t.Name() == "" {
			return r.defaultType, nil
		}
		c, err := r.registry.Register("", t)
		if err != nil {
			return r.defaultType, err
		}
		return r.describeClass(c)
	default:
		return r.defaultType, nil
	}
}

func (r *Reflection) describeClass(c *classes.Class) (descriptor.Descriptor, error) {
	if c.Kind == classes.KindCollection {
		elem, err := r.describe(c.Element)
		return descriptor.Collection(descriptor.Mixed(), elem).Wrapped(c.Name), err
	}
	return descriptor.Object(c.Name, c.Kind == classes.KindInterface), nil
}

