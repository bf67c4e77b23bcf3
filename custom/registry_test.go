package custom

import (
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

type upper struct{}

func (upper) Supports(d descriptor.Descriptor, v any) bool {
	_, isString := v.(string)
	return d.IsScalar() && isString
}

func (upper) Convert(_ descriptor.Descriptor, v any, _ *mapping.Context) (any, error) {
	return strings.ToUpper(v.(string)), nil
}

func TestRegister_Arities(t *testing.T) {
	money := descriptor.Object("Money", false)
	ctx := mapping.NewContext(nil, nil)

	tests := []struct {
		name string
		fn   any
	}{
		{"value", func(v any) any { return "one" }},
		{"value and error", func(v any) (any, error) { return "one", nil }},
		{"value and context", func(v any, c *mapping.Context) any { return "one" }},
		{"full", func(v any, c *mapping.Context) (any, error) { return "one", nil }},
		{"func type", Func(func(v any, c *mapping.Context) (any, error) { return "one", nil })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, r.Register("Money", tt.fn))
			require.True(t, r.Supports(money, 1))
			got, err := r.Convert(money, 1, ctx)
			require.NoError(t, err)
			assert.Equal(t, "one", got)
		})
	}
}

func TestRegister_Rejects(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register("Money", func() any { return nil }), mapping.ErrConfiguration)
	assert.ErrorIs(t, r.Register("Money", nil), mapping.ErrConfiguration)
	assert.ErrorIs(t, r.Register("", func(v any) any { return v }), mapping.ErrConfiguration)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Money", func(v any) any { return "first" }))
	require.NoError(t, r.Register("Money", func(v any) any { return "second" }))
	r.Add(upper{})

	got, err := r.Convert(descriptor.Object("Money", false), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", got, "registration order decides")

	assert.False(t, r.Supports(descriptor.Object("Other", false), 1))
	assert.False(t, r.Supports(descriptor.Collection(descriptor.Mixed(), descriptor.Object("Money", false)), 1))

	got, err = r.Convert(descriptor.Scalar(descriptor.String), "abc", nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC", got)

	_, err = r.Convert(descriptor.Object("Other", false), 1, nil)
	assert.ErrorIs(t, err, mapping.ErrConfiguration)
}

func TestRegistry_ConverterErrorsPassThrough(t *testing.T) {
	boom := stderrors.New("bad money")
	r := NewRegistry()
	require.NoError(t, r.Register("Money", func(v any) (any, error) { return nil, boom }))
	_, err := r.Convert(descriptor.Object("Money", false), "x", nil)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ConcurrentAddAndRead(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register("Money", func(v any) any { return v })
		}()
		go func() {
			defer wg.Done()
			_ = r.Supports(descriptor.Object("Money", false), nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, r.Len())
}
