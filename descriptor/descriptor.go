// Package descriptor defines the declared-type descriptors that drive value conversion.
//
// A Descriptor is a tagged union over scalar, object, collection, union and mixed
// types. Descriptors are produced by a type provider and consumed read-only by the
// mapping engine. They are plain values so they can be cached and serialized.
package descriptor

import (
	"strings"
)

// Kind tags the shape of a Descriptor.
type Kind uint8

const (
	KindMixed Kind = iota // untyped, values pass through unchanged
	KindScalar
	KindObject
	KindCollection
	KindUnion
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindCollection:
		return "collection"
	case KindUnion:
		return "union"
	default:
		return "mixed"
	}
}

// ScalarKind is the primitive target of a scalar descriptor.
type ScalarKind uint8

const (
	Int ScalarKind = iota + 1
	Float
	Bool
	String
)

// String returns the scalar kind name as used in error messages.
func (s ScalarKind) String() string {
	switch s {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Descriptor describes a declared property type.
type Descriptor struct {
	Kind         Kind         `json:"kind" msgpack:"kind"`
	Scalar       ScalarKind   `json:"scalar,omitempty" msgpack:"scalar,omitempty"`
	Class        string       `json:"class,omitempty" msgpack:"class,omitempty"`
	Nullable     bool         `json:"nullable,omitempty" msgpack:"nullable,omitempty"`
	Key          *Descriptor  `json:"key,omitempty" msgpack:"key,omitempty"`
	Value        *Descriptor  `json:"value,omitempty" msgpack:"value,omitempty"`
	Wrapper      string       `json:"wrapper,omitempty" msgpack:"wrapper,omitempty"`
	Alternatives []Descriptor `json:"alternatives,omitempty" msgpack:"alternatives,omitempty"`
	// Format is the declared layout for date-time objects.
	Format string `json:"format,omitempty" msgpack:"format,omitempty"`
}

// Scalar returns a scalar descriptor.
func Scalar(kind ScalarKind) Descriptor {
	return Descriptor{Kind: KindScalar, Scalar: kind}
}

// Object returns an object descriptor for the named class.
func Object(class string, nullable bool) Descriptor {
	return Descriptor{Kind: KindObject, Class: class, Nullable: nullable}
}

// Collection returns a collection descriptor with the given key and value types.
func Collection(key, value Descriptor) Descriptor {
	return Descriptor{Kind: KindCollection, Key: &key, Value: &value}
}

// Union returns a union over the alternatives, tried in order.
func Union(alternatives ...Descriptor) Descriptor {
	alts := make([]Descriptor, len(alternatives))
	copy(alts, alternatives)
	return Descriptor{Kind: KindUnion, Alternatives: alts}
}

// Mixed returns the untyped descriptor.
func Mixed() Descriptor { return Descriptor{Kind: KindMixed} }

// Wrapped returns a copy of a collection descriptor wrapped by the named collection class.
func (d Descriptor) Wrapped(class string) Descriptor {
	d.Wrapper = class
	return d
}

// WithFormat returns a copy carrying a declared date-time layout.
func (d Descriptor) WithFormat(layout string) Descriptor {
	d.Format = layout
	return d
}

// AsNullable returns a copy marked nullable.
func (d Descriptor) AsNullable() Descriptor {
	d.Nullable = true
	return d
}

func (d Descriptor) IsScalar() bool     { return d.Kind == KindScalar }
func (d Descriptor) IsObject() bool     { return d.Kind == KindObject }
func (d Descriptor) IsCollection() bool { return d.Kind == KindCollection }
func (d Descriptor) IsUnion() bool      { return d.Kind == KindUnion }
func (d Descriptor) IsMixed() bool      { return d.Kind == KindMixed }

// ValueType returns the element descriptor of a collection, or Mixed.
func (d Descriptor) ValueType() Descriptor {
	if d.Value == nil {
		return Mixed()
	}
	return *d.Value
}

// KeyType returns the key descriptor of a collection, or Mixed.
func (d Descriptor) KeyType() Descriptor {
	if d.Key == nil {
		return Mixed()
	}
	return *d.Key
}

// Equal reports whether two descriptors describe the same type.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.Kind != o.Kind || d.Scalar != o.Scalar || d.Class != o.Class || d.Nullable != o.Nullable ||
		d.Wrapper != o.Wrapper || d.Format != o.Format || len(d.Alternatives) != len(o.Alternatives) {
		return false
	}
	if (d.Key == nil) != (o.Key == nil) || (d.Key != nil && !d.Key.Equal(*o.Key)) {
		return false
	}
	if (d.Value == nil) != (o.Value == nil) || (d.Value != nil && !d.Value.Equal(*o.Value)) {
		return false
	}
	for i := range d.Alternatives {
		if !d.Alternatives[i].Equal(o.Alternatives[i]) {
			return false
		}
	}
	return true
}

// String renders the descriptor, e.g. "?Person", "array<int, Item>" or "int|string".
func (d Descriptor) String() string {
	switch d.Kind {
	case KindScalar:
		return d.Scalar.String()
	case KindObject:
		if d.Nullable {
			return "?" + d.Class
		}
		return d.Class
	case KindCollection:
		name := "array"
		if d.Wrapper != "" {
			name = d.Wrapper
		}
		key := "array-key"
		if d.Key != nil && !d.Key.IsMixed() {
			key = d.Key.String()
		}
		return name + "<" + key + ", " + d.ValueType().String() + ">"
	case KindUnion:
		parts := make([]string, 0, len(d.Alternatives))
		for _, a := range d.Alternatives {
			parts = append(parts, a.String())
		}
		return strings.Join(parts, "|")
	default:
		return "mixed"
	}
}
