package jsonmapper

import (
	"fmt"
	"reflect"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/mapping"
)

// Generic helpers as top-level functions (methods cannot have type parameters yet).
// Each registers T under its Go type name when it is not registered yet.

func classFor[T any](m *Mapper) (string, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if c, ok := m.registry.ByType(typ); ok {
		return c.Name, nil
	}
	c, err := classes.Register[T](m.registry)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func as[T any](v any) (*T, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *T:
		return x, nil
	case T:
		return &x, nil
	default:
		var zero T
		return nil, fmt.Errorf("jsonmapper: mapped value is %T, not %T", v, zero)
	}
}

// MapTo maps json onto a new T.
func MapTo[T any](m *Mapper, json any, opts ...CallOption) (*T, error) {
	class, err := classFor[T](m)
	if err != nil {
		return nil, err
	}
	v, err := m.Map(json, class, opts...)
	if err != nil {
		return nil, err
	}
	return as[T](v)
}

// MapSliceTo maps a JSON array of objects onto a slice of T, keeping input order.
func MapSliceTo[T any](m *Mapper, json any, opts ...CallOption) ([]*T, error) {
	class, err := classFor[T](m)
	if err != nil {
		return nil, err
	}
	v, err := m.Map(json, class, opts...)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonmapper: mapped value is %T, not a sequence", v)
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		t, err := as[T](item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// MapWithReportTo is MapWithReport onto a new T.
func MapWithReportTo[T any](m *Mapper, json any, opts ...CallOption) (*T, mapping.Report, error) {
	class, err := classFor[T](m)
	if err != nil {
		return nil, mapping.Report{}, err
	}
	res, err := m.MapWithReport(json, class, opts...)
	if err != nil {
		return nil, mapping.Report{}, err
	}
	t, err := as[T](res.Value)
	return t, res.Report, err
}
