package jsontree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KeepsKeyOrder(t *testing.T) {
	v, err := Decode([]byte(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": [1, 2.5, "x"]}`))
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)

	keys := []string{}
	for p := obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	zeta, _ := obj.Get("zeta")
	assert.Equal(t, int64(1), zeta)
	mid, _ := obj.Get("mid")
	assert.Equal(t, []any{int64(1), 2.5, "x"}, mid)

	alpha, _ := obj.Get("alpha")
	assert.Equal(t, "b", alpha.(*Object).Oldest().Key)
}

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`"text"`, "text"},
		{`42`, int64(42)},
		{`-1.25`, -1.25},
		{`1e3`, 1000.0},
		{`true`, true},
		{`null`, nil},
		{`[]`, []any{}},
		{`99999999999999999999`, 1e20},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, in := range []string{``, `{`, `[1,`, `1 2`} {
		_, err := DecodeReader(strings.NewReader(in))
		assert.Error(t, err, in)
	}
	_, err := Decode([]byte(`{} []`))
	assert.ErrorIs(t, err, ErrTrailingData)
}

func TestPlain(t *testing.T) {
	v, err := Decode([]byte(`{"a": [{"b": 1}]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{map[string]any{"b": int64(1)}}}, Plain(v))
}
