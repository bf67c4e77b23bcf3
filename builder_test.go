package jsonmapper

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/config"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

type Temperature struct {
	Celsius float64
}

type Reading struct {
	Station string      `json:"station"`
	Temp    Temperature `json:"temp"`
	Extra   any         `json:"extra"`
}

type Gadget struct {
	Label string `json:"label"`
}

func celsius(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return Temperature{Celsius: float64(n)}, nil
	case float64:
		return Temperature{Celsius: n}, nil
	default:
		return nil, fmt.Errorf("not a temperature: %v", v)
	}
}

func TestBuilder_Build(t *testing.T) {
	m, err := NewBuilder().
		WithOptions(WithConfiguration(config.Strict())).
		AddClass("", Reading{}).
		Setup(func(r *classes.Registry) error {
			_, err := classes.RegisterValue[Temperature](r, "Temperature")
			return err
		}).
		AddHandler("Temperature", celsius).
		Override("Reading", "extra", descriptor.Object("Temperature", false)).
		Build()
	require.NoError(t, err)

	out, err := m.Map(decode(t, `{"station":"G4ABC","temp":21.5,"extra":5}`), "Reading")
	require.NoError(t, err)
	r := out.(*Reading)
	assert.Equal(t, "G4ABC", r.Station)
	assert.Equal(t, 21.5, r.Temp.Celsius)
	assert.Equal(t, Temperature{Celsius: 5}, r.Extra)
}

func TestBuilder_HandlerErrorIsMismatch(t *testing.T) {
	m, err := NewBuilder().
		AddClass("", Reading{}).
		Setup(func(r *classes.Registry) error {
			_, err := classes.RegisterValue[Temperature](r, "Temperature")
			return err
		}).
		AddHandler("Temperature", celsius).
		Build()
	require.NoError(t, err)

	res, err := m.MapWithReport(decode(t, `{"temp":"warm"}`), "Reading")
	require.NoError(t, err)
	require.Equal(t, 1, res.Report.Count())
	assert.Equal(t, "$.temp", res.Report.Errors()[0].Path)
	assert.Equal(t, mapping.KindTypeMismatch, res.Report.Errors()[0].Kind)
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewBuilder().AddHandler("", celsius).Build()
	assert.True(t, stderrors.Is(err, mapping.ErrConfiguration))

	_, err = NewBuilder().AddClass("", 42).Build()
	assert.True(t, stderrors.Is(err, mapping.ErrConfiguration))

	_, err = NewBuilder().AddClassMapping("Reading", "Nope").Build()
	assert.True(t, stderrors.Is(err, mapping.ErrConfiguration))
}

func TestBuilder_ClassMapping(t *testing.T) {
	m, err := NewBuilder().
		AddClass("", Reading{}).
		AddClass("Alias", Gadget{}).
		AddClassMapping("Reading", "Alias").
		Build()
	require.NoError(t, err)

	out, err := m.Map(decode(t, `{"label":"x"}`), "Reading")
	require.NoError(t, err)
	assert.Equal(t, &Gadget{Label: "x"}, out)
}

func TestMapTo(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	g, err := MapTo[Gadget](m, decode(t, `{"label":"dial"}`))
	require.NoError(t, err)
	assert.Equal(t, "dial", g.Label)

	list, err := MapSliceTo[Gadget](m, decode(t, `[{"label":"a"},{"label":"b"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[1].Label)

	g, report, err := MapWithReportTo[Gadget](m, decode(t, `{"label":1}`))
	require.NoError(t, err)
	assert.Equal(t, "", g.Label)
	assert.Equal(t, 1, report.Count())

	_, err = MapSliceTo[Gadget](m, decode(t, `{"label":"a"}`))
	assert.Error(t, err)
}
