package jsonmapper

import (
	"reflect"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/custom"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/resolver"
)

type classEntry struct {
	name string
	typ  reflect.Type
}

type handlerEntry struct {
	class string
	fn    any
}

type override struct {
	class, property string
	d               descriptor.Descriptor
}

// Builder provides a fluent API to construct a Mapper with classes, handlers
// and class mappings pre-registered. Registration errors surface from Build.
type Builder struct {
	opts      []Option
	classes   []classEntry
	setup     []func(*classes.Registry) error
	handlers  []handlerEntry
	classMap  resolver.ClassMap
	overrides []override
}

// NewBuilder creates a new builder.
func NewBuilder() *Builder {
	return &Builder{classMap: resolver.ClassMap{}}
}

// WithOptions appends mapper options to the builder.
func (b *Builder) WithOptions(opts ...Option) *Builder { b.opts = append(b.opts, opts...); return b }

// AddClass registers the struct or interface type of example under name. An
// empty name uses the Go type name.
func (b *Builder) AddClass(name string, example any) *Builder {
	b.classes = append(b.classes, classEntry{name: name, typ: typeOf(example)})
	return b
}

// Setup runs fn against the class registry at build time, for the generic
// registrations (enums, collections, value classes).
func (b *Builder) Setup(fn func(*classes.Registry) error) *Builder {
	b.setup = append(b.setup, fn)
	return b
}

// AddHandler registers a custom handler for class. fn takes any of the shapes custom.Registry.Register accepts.
func (b *Builder) AddHandler(class string, fn any) *Builder {
	b.handlers = append(b.handlers, handlerEntry{class: class, fn: fn})
	return b
}

// AddClassMapping maps a declared class to a concrete class name or a resolver.Func.
func (b *Builder) AddClassMapping(declared string, target any) *Builder {
	b.classMap[declared] = target
	return b
}

// Override declares the type of one property explicitly.
func (b *Builder) Override(class, property string, d descriptor.Descriptor) *Builder {
	b.overrides = append(b.overrides, override{class: class, property: property, d: d})
	return b
}

// Build constructs the Mapper. Options given through WithOptions take precedence
// over the builder's own class map.
func (b *Builder) Build() (*Mapper, error) {
	var o Options
	for _, f := range b.opts {
		f(&o)
	}
	reg := o.Registry
	if reg == nil {
		reg = classes.NewRegistry()
	}
	for _, c := range b.classes {
		if _, err := reg.Register(c.name, c.typ); err != nil {
			return nil, err
		}
	}
	for _, fn := range b.setup {
		if err := fn(reg); err != nil {
			return nil, err
		}
	}
	handlers := o.Handlers
	if handlers == nil {
		handlers = custom.NewRegistry()
	}
	for _, h := range b.handlers {
		if err := handlers.Register(h.class, h.fn); err != nil {
			return nil, err
		}
	}
	classMap := make(resolver.ClassMap, len(b.classMap)+len(o.ClassMap))
	for k, v := range b.classMap {
		classMap[k] = v
	}
	for k, v := range o.ClassMap {
		classMap[k] = v
	}

	opts := append([]Option{}, b.opts...)
	opts = append(opts, WithRegistry(reg), WithHandlers(handlers), WithClassMap(classMap))
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	for _, ov := range b.overrides {
		m.reflection.Override(ov.class, ov.property, ov.d)
	}
	return m, nil
}

func typeOf(example any) reflect.Type {
	if t, ok := example.(reflect.Type); ok {
		return t
	}
	return reflect.TypeOf(example)
}
