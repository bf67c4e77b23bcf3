package mapping

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonmapper/config"
)

func TestContext_Path(t *testing.T) {
	ctx := NewContext(nil, nil)
	assert.Equal(t, "$", ctx.Path())

	_, err := ctx.WithPathSegment("items", func(c *Context) (any, error) {
		assert.Equal(t, "$.items", c.Path())
		return c.WithPathSegment(0, func(c *Context) (any, error) {
			assert.Equal(t, "$.items.0", c.Path())
			return c.WithPathSegment("name", func(c *Context) (any, error) {
				assert.Equal(t, "$.items.0.name", c.Path())
				return nil, nil
			})
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "$", ctx.Path())
	assert.Equal(t, 0, ctx.Depth())
}

func TestContext_PathPoppedOnErrorAndPanic(t *testing.T) {
	ctx := NewContext(nil, nil)
	boom := stderrors.New("boom")

	_, err := ctx.WithPathSegment("a", func(c *Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "$", ctx.Path())

	assert.Panics(t, func() {
		_, _ = ctx.WithPathSegment("b", func(c *Context) (any, error) {
			panic("kaboom")
		})
	})
	assert.Equal(t, "$", ctx.Path())
}

func TestWithSegment_Typed(t *testing.T) {
	ctx := NewContext(nil, nil)
	got, err := WithSegment(ctx, 3, func(c *Context) (string, error) {
		return c.Path(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "$.3", got)
	assert.Equal(t, "$.x", ctx.PathWith("x"))
}

func TestContext_AddError(t *testing.T) {
	ctx := NewContext(map[string]any{"a": 1}, config.Default().ToOptions())
	_, _ = ctx.WithPathSegment("simple", func(c *Context) (any, error) {
		c.AddError("something odd", nil)
		return nil, nil
	})
	errs := ctx.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "$.simple", errs[0].Path)
	assert.Equal(t, "something odd", errs[0].Message)
	assert.Equal(t, map[string]any{"a": 1}, ctx.Root())
}

func TestContext_AddErrorDisabled(t *testing.T) {
	ctx := NewContext(nil, config.Default().WithCollectErrors(false).ToOptions())
	ctx.AddError("ignored", nil)
	assert.Empty(t, ctx.Errors())
	assert.NoError(t, ctx.Fail(TypeMismatch("$", "int", "x", nil)))
	assert.Empty(t, ctx.Errors())
}

func TestContext_Fail(t *testing.T) {
	tests := []struct {
		name      string
		ctx       *Context
		wantRaise bool
		wantCount int
	}{
		{name: "lenient records", ctx: NewContext(nil, config.Lenient().ToOptions()), wantCount: 1},
		{name: "strict raises", ctx: NewContext(nil, config.Strict().ToOptions()), wantRaise: true},
		{name: "report mode never raises", ctx: NewReportingContext(nil, config.Strict().WithCollectErrors(false).ToOptions()), wantCount: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Fail(TypeMismatch("$.name", "string", 123, nil))
			if tt.wantRaise {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrTypeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tt.ctx.Errors(), tt.wantCount)
		})
	}
}

func TestContext_Reject(t *testing.T) {
	lenient := NewContext(nil, nil)
	err := lenient.Reject(TypeMismatch("$.age", "int", "x", nil))
	assert.ErrorIs(t, err, ErrRejected)
	assert.False(t, IsDataError(err))
	assert.Len(t, lenient.Errors(), 1)

	strict := NewContext(nil, config.Strict().ToOptions())
	err = strict.Reject(TypeMismatch("$.age", "int", "x", nil))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestContext_OptionDefaults(t *testing.T) {
	ctx := NewContext(nil, map[string]any{
		config.OptDefaultDateFormat: 42,
		config.OptStrictMode:        "yes please",
	})
	assert.Equal(t, config.DefaultDateFormat, ctx.DefaultDateFormat())
	assert.False(t, ctx.StrictMode())
	assert.True(t, ctx.CollectErrors())
	assert.False(t, ctx.EmptyStringIsNull())
	assert.False(t, ctx.IgnoreUnknownProperties())
	assert.False(t, ctx.TreatNullAsEmptyCollection())
	assert.False(t, ctx.AllowScalarToObjectCasting())

	ctx = NewContext(nil, map[string]any{config.OptDefaultDateFormat: "2006-01-02"})
	assert.Equal(t, "2006-01-02", ctx.DefaultDateFormat())
}

func TestContext_OptionsAreCopied(t *testing.T) {
	opts := map[string]any{config.OptStrictMode: false}
	ctx := NewContext(nil, opts)
	opts[config.OptStrictMode] = true
	assert.False(t, ctx.StrictMode())
}
