package property

import (
	stderrors "errors"
	"fmt"
	"math"
	"reflect"

	"fortio.org/safecast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrReadonly is returned when writing to an initialised read-only property.
	ErrReadonly = stderrors.New("property is read-only")
	// ErrIncompatible is returned when a value cannot be stored in the property's Go type.
	ErrIncompatible = stderrors.New("value is not assignable to property")
)

// Writer stores converted values into entities, preferring Set<Field> methods over direct field assignment.
type Writer struct {
	provider *Reflection
}

func NewWriter(provider *Reflection) *Writer {
	return &Writer{provider: provider}
}

// Write assigns value to the named property of entity, which must be a non-nil pointer to a struct.
func (w *Writer) Write(entity any, property string, value any) error {
	ev := reflect.ValueOf(entity)
	if ev.Kind() != reflect.Ptr || ev.IsNil() || ev.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: entity must be a non-nil struct pointer, got %T", ErrIncompatible, entity)
	}
	meta := w.provider.Metadata(ev.Elem().Type())
	f, ok := meta.Field(property)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrNoProperty, meta.Type.Name(), property)
	}
	if f.Readonly && !isZeroAt(ev.Elem(), f.Index) {
		return fmt.Errorf("%w: %s.%s", ErrReadonly, meta.Type.Name(), property)
	}
	if f.setter != nil {
		return callSetter(ev, f, value)
	}
	dst := fieldForWrite(ev.Elem(), f.Index)
	if !dst.CanSet() {
		return fmt.Errorf("%w: field %s cannot be set", ErrIncompatible, f.GoName)
	}
	if err := Assign(dst, value); err != nil {
		return fmt.Errorf("property %s: %w", property, err)
	}
	return nil
}

func callSetter(ev reflect.Value, f *Field, value any) error {
	mt := f.setter.Type
	var args []reflect.Value
	if mt.IsVariadic() {
		elemType := mt.In(1).Elem()
		items, isSeq := sequence(value)
		if !isSeq {
			items = []any{value}
		}
		args = make([]reflect.Value, 0, len(items)+1)
		args = append(args, ev)
		for i, it := range items {
			arg := reflect.New(elemType).Elem()
			if err := Assign(arg, it); err != nil {
				return fmt.Errorf("setter %s argument %d: %w", f.setter.Name, i, err)
			}
			args = append(args, arg)
		}
	} else {
		arg := reflect.New(mt.In(1)).Elem()
		if err := Assign(arg, value); err != nil {
			return fmt.Errorf("setter %s: %w", f.setter.Name, err)
		}
		args = []reflect.Value{ev, arg}
	}
	out := f.setter.Func.Call(args)
	if len(out) == 1 && !out[0].IsNil() {
		return fmt.Errorf("%w: setter %s: %w", ErrIncompatible, f.setter.Name, out[0].Interface().(error))
	}
	return nil
}

// sequence returns the values of an ordered sequence: a []any, or entries
// whose keys are the ints 0..n-1 in order.
func sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case *orderedmap.OrderedMap[any, any]:
		out := make([]any, 0, s.Len())
		i := 0
		for p := s.Oldest(); p != nil; p = p.Next() {
			if k, ok := p.Key.(int); !ok || k != i {
				return nil, false
			}
			out = append(out, p.Value)
			i++
		}
		return out, true
	default:
		return nil, false
	}
}

// Assign stores v into dst, converting between compatible representations:
// pointer wrapping and unwrapping, same-kind conversion, range-checked numeric
// narrowing, and entries or slices into Go slices, arrays and maps.
func Assign(dst reflect.Value, v any) error {
	dt := dst.Type()
	if v == nil {
		if !nillable(dt) {
			return fmt.Errorf("%w: cannot assign null to %s", ErrIncompatible, dt)
		}
		dst.Set(reflect.Zero(dt))
		return nil
	}
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	if rt.AssignableTo(dt) {
		dst.Set(rv)
		return nil
	}
	if isTree(v) {
		switch dt.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return assignComposite(dst, v)
		}
	}
	if rt.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return Assign(dst, nil)
		}
		if dt.Kind() != reflect.Ptr {
			return Assign(dst, rv.Elem().Interface())
		}
	}
	if dt.Kind() == reflect.Ptr {
		p := reflect.New(dt.Elem())
		if err := Assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	if rt.Kind() == dt.Kind() && isPlainKind(rt.Kind()) && rt.ConvertibleTo(dt) {
		dst.Set(rv.Convert(dt))
		return nil
	}
	if isNumber(rt.Kind()) && isNumber(dt.Kind()) {
		return assignNumber(dst, rv)
	}
	switch dt.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return assignComposite(dst, v)
	}
	return fmt.Errorf("%w: cannot assign %s to %s", ErrIncompatible, rt, dt)
}

// isTree reports whether v is a composite node of a decoded JSON tree or of produced entries.
func isTree(v any) bool {
	switch v.(type) {
	case []any, map[string]any, *orderedmap.OrderedMap[any, any], *orderedmap.OrderedMap[string, any]:
		return true
	default:
		return false
	}
}

func isPlainKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isNumber(k reflect.Kind) bool {
	return k != reflect.Bool && k != reflect.String && isPlainKind(k)
}

func assignNumber(dst, src reflect.Value) error {
	switch {
	case src.CanInt():
		return setFromInt(dst, src.Int())
	case src.CanUint():
		u := src.Uint()
		if dst.CanUint() {
			return setFromUint(dst, u)
		}
		n, err := safecast.Conv[int64](u)
		if err != nil {
			return fmt.Errorf("%w: %d: %w", ErrIncompatible, u, err)
		}
		return setFromInt(dst, n)
	default:
		f := src.Float()
		if dst.CanFloat() {
			if dst.OverflowFloat(f) {
				return fmt.Errorf("%w: %g overflows %s", ErrIncompatible, f, dst.Type())
			}
			dst.SetFloat(f)
			return nil
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %g is not an integer", ErrIncompatible, f)
		}
		if dst.CanUint() {
			u, err := safecast.Convert[uint64](f)
			if err != nil {
				return fmt.Errorf("%w: %g: %w", ErrIncompatible, f, err)
			}
			return setFromUint(dst, u)
		}
		n, err := safecast.Convert[int64](f)
		if err != nil {
			return fmt.Errorf("%w: %g: %w", ErrIncompatible, f, err)
		}
		return setFromInt(dst, n)
	}
}

func setFromInt(dst reflect.Value, n int64) error {
	var err error
	switch dst.Kind() {
	case reflect.Int8:
		_, err = safecast.Conv[int8](n)
	case reflect.Int16:
		_, err = safecast.Conv[int16](n)
	case reflect.Int32:
		_, err = safecast.Conv[int32](n)
	case reflect.Int:
		_, err = safecast.Conv[int](n)
	case reflect.Int64:
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, cerr := safecast.Conv[uint64](n)
		if cerr != nil {
			return fmt.Errorf("%w: %d: %w", ErrIncompatible, n, cerr)
		}
		return setFromUint(dst, u)
	case reflect.Float32, reflect.Float64:
		f, cerr := safecast.Convert[float64](n)
		if cerr != nil {
			return fmt.Errorf("%w: %d: %w", ErrIncompatible, n, cerr)
		}
		dst.SetFloat(f)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %d overflows %s: %w", ErrIncompatible, n, dst.Type(), err)
	}
	dst.SetInt(n)
	return nil
}

func setFromUint(dst reflect.Value, u uint64) error {
	var err error
	switch dst.Kind() {
	case reflect.Uint8:
		_, err = safecast.Conv[uint8](u)
	case reflect.Uint16:
		_, err = safecast.Conv[uint16](u)
	case reflect.Uint32:
		_, err = safecast.Conv[uint32](u)
	case reflect.Uint:
		_, err = safecast.Conv[uint](u)
	}
	if err != nil {
		return fmt.Errorf("%w: %d overflows %s: %w", ErrIncompatible, u, dst.Type(), err)
	}
	dst.SetUint(u)
	return nil
}

func assignComposite(dst reflect.Value, v any) error {
	dt := dst.Type()
	if dt.Kind() == reflect.Map {
		return assignMap(dst, v)
	}
	items, ok := sequence(v)
	if !ok {
		if e, isEntries := v.(*orderedmap.OrderedMap[any, any]); isEntries {
			items = make([]any, 0, e.Len())
			for p := e.Oldest(); p != nil; p = p.Next() {
				items = append(items, p.Value)
			}
		} else {
			return fmt.Errorf("%w: cannot assign %T to %s", ErrIncompatible, v, dt)
		}
	}
	var out reflect.Value
	if dt.Kind() == reflect.Array {
		if len(items) > dt.Len() {
			return fmt.Errorf("%w: %d elements do not fit %s", ErrIncompatible, len(items), dt)
		}
		out = reflect.New(dt).Elem()
	} else {
		out = reflect.MakeSlice(dt, len(items), len(items))
	}
	for i, it := range items {
		if err := Assign(out.Index(i), it); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func assignMap(dst reflect.Value, v any) error {
	dt := dst.Type()
	out := reflect.MakeMap(dt)
	put := func(k, val any) error {
		kv := reflect.New(dt.Key()).Elem()
		if err := Assign(kv, k); err != nil {
			if dt.Key().Kind() != reflect.String {
				return fmt.Errorf("key %v: %w", k, err)
			}
			kv.SetString(fmt.Sprint(k))
		}
		ev := reflect.New(dt.Elem()).Elem()
		if err := Assign(ev, val); err != nil {
			return fmt.Errorf("key %v: %w", k, err)
		}
		out.SetMapIndex(kv, ev)
		return nil
	}
	switch m := v.(type) {
	case *orderedmap.OrderedMap[any, any]:
		for p := m.Oldest(); p != nil; p = p.Next() {
			if err := put(p.Key, p.Value); err != nil {
				return err
			}
		}
	case *orderedmap.OrderedMap[string, any]:
		for p := m.Oldest(); p != nil; p = p.Next() {
			if err := put(p.Key, p.Value); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, val := range m {
			if err := put(k, val); err != nil {
				return err
			}
		}
	case []any:
		for i, val := range m {
			if err := put(i, val); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: cannot assign %T to %s", ErrIncompatible, v, dt)
	}
	dst.Set(out)
	return nil
}
