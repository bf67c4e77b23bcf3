package property

import (
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

type Audit struct {
	CreatedBy string `json:"created_by"`
}

type Status string

type Tagged struct {
	tags []string
}

func (t *Tagged) SetTags(tags ...string) { t.tags = tags }

type Guarded struct {
	Level int
}

func (g *Guarded) SetLevel(l int) error {
	if l < 0 {
		return stderrors.New("negative level")
	}
	g.Level = l
	return nil
}

type Person struct {
	*Audit
	ID        string            `json:"id" mapper:"readonly"`
	Name      string            `json:"name"`
	Nick      *string           `json:"nick"`
	Age       int8              `json:"age"`
	Score     float32           `json:"score"`
	Count     int               `json:"count" mapper:"nulldefault"`
	Status    Status            `json:"status"`
	Home      Address           `json:"home"`
	Work      *Address          `json:"work"`
	Tags      []string          `json:"tags"`
	Labels    map[string]int    `json:"labels"`
	Born      time.Time         `json:"born" mapper:"optional,format=2006-01-02"`
	Extra     any               `json:"extra"`
	Email     string            `json:"email" mapper:"replaces=mail"`
	Secret    string            `json:"-"`
	Skipped   string            `mapper:"-"`
	Fixed     [2]int            `json:"fixed"`
	Meta      map[string]string `json:"meta"`
	unexposed string
}

func (p *Person) Initialize() error {
	p.Count = 10
	return nil
}

func newProvider(t *testing.T) (*Reflection, *classes.Registry) {
	t.Helper()
	reg := classes.NewRegistry()
	classes.MustRegister[Person](reg)
	_, err := classes.RegisterEnum(reg, Status("active"), Status("inactive"))
	require.NoError(t, err)
	return NewReflection(reg), reg
}

func TestMetadata(t *testing.T) {
	p, _ := newProvider(t)
	meta, err := p.ClassInfo("Person")
	require.NoError(t, err)

	f, ok := meta.Field("created_by")
	require.True(t, ok, "embedded pointer struct fields are flattened")
	assert.Equal(t, []int{0, 0}, f.Index)

	_, ok = meta.Field("Secret")
	assert.False(t, ok)
	_, ok = meta.Field("Skipped")
	assert.False(t, ok)
	_, ok = meta.Field("unexposed")
	assert.False(t, ok)

	id, _ := meta.Field("id")
	assert.True(t, id.Readonly)
	born, _ := meta.Field("born")
	assert.True(t, born.Optional)
	assert.Equal(t, "2006-01-02", born.Format)
	assert.Equal(t, "email", meta.Rename("mail"))
	assert.Equal(t, "other", meta.Rename("other"))

	var required []string
	for _, r := range meta.Required() {
		required = append(required, r.Name)
	}
	assert.Equal(t, []string{"created_by", "id", "name", "age", "score", "status", "home", "email", "fixed"}, required)
}

type Broken struct {
	Level int `json:"level"`
}

func (b *Broken) Initialize() error { return stderrors.New("no defaults") }

func TestMetadata_InitializeFailure(t *testing.T) {
	p := NewReflection(classes.NewRegistry())
	meta := p.Metadata(reflect.TypeOf(Broken{}))
	f, ok := meta.Field("level")
	require.True(t, ok)
	assert.False(t, f.Required)
	assert.Empty(t, meta.Required())
}

func TestParseTag(t *testing.T) {
	tag, ok := parseTag("readonly,replaces=old,format=Mon, 02 Jan 2006")
	require.True(t, ok)
	assert.True(t, tag.readonly)
	assert.Equal(t, "old", tag.replaces)
	assert.Equal(t, "Mon, 02 Jan 2006", tag.format)

	_, ok = parseTag("-")
	assert.False(t, ok)
}

func TestPropertyType(t *testing.T) {
	p, reg := newProvider(t)
	tests := []struct {
		property string
		want     string
	}{
		{"name", "string"},
		{"nick", "string"},
		{"age", "int"},
		{"score", "float"},
		{"status", "Status"},
		{"home", "Address"},
		{"work", "?Address"},
		{"tags", "array<int, string>"},
		{"labels", "array<string, int>"},
		{"born", "time.Time"},
		{"extra", "mixed"},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			d, err := p.PropertyType("Person", tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}

	assert.True(t, reg.Loadable("Address"), "nested structs are registered on the way")

	d, _ := p.PropertyType("Person", "born")
	assert.Equal(t, "2006-01-02", d.Format)

	_, err := p.PropertyType("Person", "ghost")
	assert.ErrorIs(t, err, ErrNoProperty)

	_, err = p.PropertyType("Nobody", "name")
	assert.ErrorIs(t, err, mapping.ErrConfiguration)

	p.Override("Person", "extra", descriptor.Union(descriptor.Scalar(descriptor.Int), descriptor.Scalar(descriptor.String)))
	d, err = p.PropertyType("Person", "extra")
	require.NoError(t, err)
	assert.Equal(t, "int|string", d.String())
}

func TestPropertyType_ClassNameConflict(t *testing.T) {
	type Address struct {
		Zip string `json:"zip"`
	}
	type Letter struct {
		To Address `json:"to"`
	}
	reg := classes.NewRegistry()
	_, err := reg.Register("", reflect.TypeOf(Person{}))
	require.NoError(t, err)
	_, err = reg.Register("", reflect.TypeOf(Letter{}))
	require.NoError(t, err)
	p := NewReflection(reg)

	_, err = p.PropertyType("Person", "home")
	require.NoError(t, err)

	_, err = p.PropertyType("Letter", "to")
	assert.ErrorIs(t, err, mapping.ErrConfiguration)
	assert.Equal(t, DefaultType, p.Describe(reflect.TypeOf(Address{})))
}

func TestDescribe_DefaultType(t *testing.T) {
	p, _ := newProvider(t)
	assert.Equal(t, DefaultType, p.Describe(reflect.TypeOf(func() {})))

	custom := NewReflection(classes.NewRegistry(), WithDefaultType(descriptor.Mixed()))
	assert.True(t, custom.Describe(reflect.TypeOf(make(chan int))).IsMixed())
}

func TestWriter_Write(t *testing.T) {
	p, _ := newProvider(t)
	w := NewWriter(p)
	person := &Person{}

	entries := orderedmap.New[any, any]()
	entries.Set(0, "a")
	entries.Set(1, "b")
	labels := orderedmap.New[any, any]()
	labels.Set("x", int64(1))

	require.NoError(t, w.Write(person, "name", "Ada"))
	require.NoError(t, w.Write(person, "nick", "ada"))
	require.NoError(t, w.Write(person, "age", int64(42)))
	require.NoError(t, w.Write(person, "score", 1.5))
	require.NoError(t, w.Write(person, "status", Status("active")))
	require.NoError(t, w.Write(person, "work", &Address{City: "Paris"}))
	require.NoError(t, w.Write(person, "home", &Address{City: "Lyon"}))
	require.NoError(t, w.Write(person, "tags", entries))
	require.NoError(t, w.Write(person, "labels", labels))
	require.NoError(t, w.Write(person, "created_by", "root"))
	require.NoError(t, w.Write(person, "fixed", []any{int64(1), int64(2)}))

	assert.Equal(t, "Ada", person.Name)
	assert.Equal(t, "ada", *person.Nick)
	assert.Equal(t, int8(42), person.Age)
	assert.Equal(t, float32(1.5), person.Score)
	assert.Equal(t, Status("active"), person.Status)
	assert.Equal(t, "Paris", person.Work.City)
	assert.Equal(t, "Lyon", person.Home.City)
	assert.Equal(t, []string{"a", "b"}, person.Tags)
	assert.Equal(t, map[string]int{"x": 1}, person.Labels)
	assert.Equal(t, "root", person.Audit.CreatedBy)
	assert.Equal(t, [2]int{1, 2}, person.Fixed)
}

func TestWriter_Errors(t *testing.T) {
	p, _ := newProvider(t)
	w := NewWriter(p)
	person := &Person{}

	tests := []struct {
		name     string
		property string
		value    any
		want     error
	}{
		{"int overflow", "age", int64(300), ErrIncompatible},
		{"fractional to int", "age", 1.5, ErrIncompatible},
		{"null into value", "name", nil, ErrIncompatible},
		{"string into int", "age", "42", ErrIncompatible},
		{"too many for array", "fixed", []any{int64(1), int64(2), int64(3)}, ErrIncompatible},
		{"undeclared", "ghost", "x", ErrNoProperty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, w.Write(person, tt.property, tt.value), tt.want)
		})
	}

	assert.ErrorIs(t, w.Write(Person{}, "name", "x"), ErrIncompatible)
}

func TestWriter_Readonly(t *testing.T) {
	p, _ := newProvider(t)
	w := NewWriter(p)
	person := &Person{}

	require.NoError(t, w.Write(person, "id", "initial"))
	err := w.Write(person, "id", "changed")
	assert.ErrorIs(t, err, ErrReadonly)
	assert.Equal(t, "initial", person.ID)
}

func TestWriter_Setters(t *testing.T) {
	reg := classes.NewRegistry()
	classes.MustRegister[Tagged](reg)
	classes.MustRegister[Guarded](reg)
	p := NewReflection(reg)
	w := NewWriter(p)

	tagged := &Tagged{}
	meta := p.Metadata(reflect.TypeOf(Tagged{}))
	assert.Empty(t, meta.Fields, "unexported fields are not properties")

	guarded := &Guarded{}
	gm := p.Metadata(reflect.TypeOf(Guarded{}))
	f, ok := gm.Field("Level")
	require.True(t, ok)
	assert.True(t, f.HasSetter())
	assert.False(t, f.VariadicSetter())

	require.NoError(t, w.Write(guarded, "Level", int64(3)))
	assert.Equal(t, 3, guarded.Level)
	assert.ErrorIs(t, w.Write(guarded, "Level", int64(-1)), ErrIncompatible)
	assert.Equal(t, 3, guarded.Level)

	require.NoError(t, callSetter(reflect.ValueOf(tagged), &Field{setter: methodPtr(t, tagged, "SetTags")}, []any{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, tagged.tags)
	require.NoError(t, callSetter(reflect.ValueOf(tagged), &Field{setter: methodPtr(t, tagged, "SetTags")}, "solo"))
	assert.Equal(t, []string{"solo"}, tagged.tags)
}

func methodPtr(t *testing.T, v any, name string) *reflect.Method {
	t.Helper()
	m, ok := reflect.TypeOf(v).MethodByName(name)
	require.True(t, ok)
	return &m
}

type spread struct {
	Items []int `json:"items"`
	got   []int
}

func (s *spread) SetItems(items ...int) { s.got = items }

func TestWriter_VariadicSpread(t *testing.T) {
	reg := classes.NewRegistry()
	classes.MustRegister[spread](reg)
	p := NewReflection(reg)
	w := NewWriter(p)

	f, _ := p.Metadata(reflect.TypeOf(spread{})).Field("items")
	assert.True(t, f.VariadicSetter())

	entries := orderedmap.New[any, any]()
	entries.Set(0, int64(1))
	entries.Set(1, int64(2))
	entries.Set(2, int64(3))

	s := &spread{}
	require.NoError(t, w.Write(s, "items", entries))
	assert.Equal(t, []int{1, 2, 3}, s.got)
	assert.Nil(t, s.Items)
}

func TestAssign(t *testing.T) {
	var u8 uint8
	require.NoError(t, Assign(reflect.ValueOf(&u8).Elem(), int64(200)))
	assert.Equal(t, uint8(200), u8)
	assert.ErrorIs(t, Assign(reflect.ValueOf(&u8).Elem(), int64(-1)), ErrIncompatible)

	var f64 float64
	require.NoError(t, Assign(reflect.ValueOf(&f64).Elem(), int64(7)))
	assert.Equal(t, 7.0, f64)

	var pi *int
	require.NoError(t, Assign(reflect.ValueOf(&pi).Elem(), int64(5)))
	assert.Equal(t, 5, *pi)
	require.NoError(t, Assign(reflect.ValueOf(&pi).Elem(), nil))
	assert.Nil(t, pi)

	var m map[string]any
	obj := orderedmap.New[string, any]()
	obj.Set("k", "v")
	require.NoError(t, Assign(reflect.ValueOf(&m).Elem(), obj))
	assert.Equal(t, map[string]any{"k": "v"}, m)

	var byIndex map[string]string
	require.NoError(t, Assign(reflect.ValueOf(&byIndex).Elem(), []any{"zero"}))
	assert.Equal(t, map[string]string{"0": "zero"}, byIndex)
}
