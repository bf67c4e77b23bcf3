package custom

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonmapper/mapping"
)

func TestCompose(t *testing.T) {
	ctx := mapping.NewContext(nil, nil)
	trim := MapString(strings.TrimSpace)
	upper := MapString(strings.ToUpper)

	out, err := Compose(trim, upper)("  g4abc ", ctx)
	require.NoError(t, err)
	assert.Equal(t, "G4ABC", out)

	out, err = Compose(trim, upper)(42, ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	drop := Func(func(any, *mapping.Context) (any, error) { return nil, nil })
	called := false
	spy := Func(func(v any, _ *mapping.Context) (any, error) { called = true; return v, nil })
	out, err = Compose(drop, spy)("x", ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.False(t, called)

	boom := stderrors.New("boom")
	fail := Func(func(any, *mapping.Context) (any, error) { return nil, boom })
	_, err = Compose(trim, fail, upper)("x", ctx)
	assert.ErrorIs(t, err, boom)

	out, err = Compose()("same", ctx)
	require.NoError(t, err)
	assert.Equal(t, "same", out)
}
