// Package property reads declared property types from Go struct definitions
// and writes converted values back into entities.
package property

import (
	"reflect"
	"strings"

	"github.com/Station-Manager/jsonmapper/classes"
)

// Field is the metadata of one declared property.
type Field struct {
	// Name is the property name: the json tag name, else the Go field name.
	Name   string
	GoName string
	Index  []int
	Type   reflect.Type

	Readonly    bool
	NullDefault bool
	Optional    bool
	// Replaces is an incoming key that is treated as this property.
	Replaces string
	Format   string
	// Required is set for non-nillable, non-optional fields that are still zero
	// after initialisation. It is never set when Initialize fails.
	Required bool

	setter *reflect.Method
}

// HasSetter reports whether writes go through a Set<GoName> method.
func (f *Field) HasSetter() bool { return f.setter != nil }

// VariadicSetter reports whether the setter takes a variable-length argument list.
func (f *Field) VariadicSetter() bool { return f.setter != nil && f.setter.Type.IsVariadic() }

// Metadata is the cached property layout of a struct type.
type Metadata struct {
	Type   reflect.Type
	Fields []Field

	byName  map[string]*Field
	renames map[string]string
}

// Field returns the property with the given name.
func (m *Metadata) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Rename maps an incoming key through the class-level renaming rules.
func (m *Metadata) Rename(key string) string {
	if to, ok := m.renames[key]; ok {
		return to
	}
	return key
}

// Required returns the required properties in declaration order.
func (m *Metadata) Required() []*Field {
	var out []*Field
	for i := range m.Fields {
		if m.Fields[i].Required {
			out = append(out, &m.Fields[i])
		}
	}
	return out
}

// Names returns the property names in declaration order.
func (m *Metadata) Names() []string {
	out := make([]string, len(m.Fields))
	for i := range m.Fields {
		out[i] = m.Fields[i].Name
	}
	return out
}

func countFields(typ reflect.Type) int {
	c := 0
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				c += countFields(ft)
				continue
			}
		}
		if f.PkgPath != "" {
			continue
		}
		c++
	}
	return c
}

func buildMetadata(typ reflect.Type) *Metadata {
	fc := countFields(typ)
	meta := &Metadata{
		Type:    typ,
		Fields:  make([]Field, 0, fc),
		byName:  make(map[string]*Field, fc),
		renames: make(map[string]string),
	}
	buildFieldMetadata(typ, meta, nil)
	defaults, initOK := initialised(typ)
	ptr := reflect.PointerTo(typ)
	for i := range meta.Fields {
		fi := &meta.Fields[i]
		if m, ok := ptr.MethodByName("Set" + fi.GoName); ok && validSetter(m) {
			fi.setter = &m
		}
		fi.Required = initOK && !nillable(fi.Type) && !fi.Optional && !fi.NullDefault && isZeroAt(defaults, fi.Index)
		meta.byName[fi.Name] = fi
		if fi.Replaces != "" {
			meta.renames[fi.Replaces] = fi.Name
		}
	}
	return meta
}

func buildFieldMetadata(typ reflect.Type, meta *Metadata, prefix []int) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		idx := append(append([]int(nil), prefix...), i)
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				buildFieldMetadata(ft, meta, idx)
				continue
			}
		}
		if f.PkgPath != "" {
			continue
		}
		tag, ok := parseTag(f.Tag.Get("mapper"))
		if !ok {
			continue
		}
		name := f.Name
		if jt, has := f.Tag.Lookup("json"); has {
			if j := strings.IndexByte(jt, ','); j >= 0 {
				jt = jt[:j]
			}
			if jt == "-" {
				continue
			}
			if jt != "" {
				name = jt
			}
		}
		meta.Fields = append(meta.Fields, Field{
			Name:        name,
			GoName:      f.Name,
			Index:       idx,
			Type:        f.Type,
			Readonly:    tag.readonly,
			NullDefault: tag.nullDefault,
			Optional:    tag.optional,
			Replaces:    tag.replaces,
			Format:      tag.format,
		})
	}
}

type mapperTag struct {
	readonly    bool
	nullDefault bool
	optional    bool
	replaces    string
	format      string
}

// parseTag reads `mapper:"readonly,nulldefault,optional,replaces=key,format=layout"`.
// format must come last since layouts may contain commas. ok is false for "-".
func parseTag(tag string) (mapperTag, bool) {
	var t mapperTag
	if tag == "-" || tag == "ignore" {
		return t, false
	}
	for tag != "" {
		var item string
		if strings.HasPrefix(tag, "format=") {
			item, tag = tag, ""
		} else if i := strings.IndexByte(tag, ','); i >= 0 {
			item, tag = tag[:i], tag[i+1:]
		} else {
			item, tag = tag, ""
		}
		item = strings.TrimSpace(item)
		switch {
		case item == "readonly":
			t.readonly = true
		case item == "nulldefault":
			t.nullDefault = true
		case item == "optional":
			t.optional = true
		case strings.HasPrefix(item, "replaces="):
			t.replaces = strings.TrimPrefix(item, "replaces=")
		case strings.HasPrefix(item, "format="):
			t.format = strings.TrimPrefix(item, "format=")
		}
	}
	return t, true
}

func validSetter(m reflect.Method) bool {
	mt := m.Type
	if mt.NumIn() != 2 {
		return false
	}
	switch mt.NumOut() {
	case 0:
		return true
	case 1:
		return mt.Out(0) == errorType
	default:
		return false
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// initialised returns a zero typ with its Initialize hook applied. ok is
// false when the hook fails, in which case no field is known to be required.
func initialised(typ reflect.Type) (v reflect.Value, ok bool) {
	p := reflect.New(typ)
	if in, is := p.Interface().(classes.Initializer); is {
		if err := in.Initialize(); err != nil {
			return p.Elem(), false
		}
	}
	return p.Elem(), true
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	default:
		return false
	}
}

func isZeroAt(v reflect.Value, index []int) bool {
	f, ok := fieldByIndex(v, index)
	return !ok || f.IsZero()
}

// fieldByIndex walks index without allocating; ok is false when an embedded pointer is nil.
func fieldByIndex(val reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return reflect.Value{}, false
			}
			val = val.Elem()
		}
		val = val.Field(x)
	}
	return val, true
}

// fieldForWrite walks index, allocating nil embedded pointers on the way.
func fieldForWrite(val reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && val.Kind() == reflect.Ptr {
			if val.IsNil() {
				val.Set(reflect.New(val.Type().Elem()))
			}
			val = val.Elem()
		}
		val = val.Field(x)
	}
	return val
}
