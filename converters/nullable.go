package converters

import (
	"fortio.org/safecast"
	"github.com/Station-Manager/errors"
	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/goccy/go-json"

	"github.com/Station-Manager/jsonmapper/mapping"
	"github.com/Station-Manager/jsonmapper/strategy"
)

// NullString maps a string to a null.String. Null and the empty string are invalid.
func NullString(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullString"
	if src == nil {
		return null.String{}, nil
	}
	if s, ok := src.(string); ok && s == "" {
		return null.String{}, nil
	}
	srcVal, err := CheckString(op, src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return null.StringFrom(srcVal), nil
}

func NullBool(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullBool"
	if src == nil {
		return null.Bool{}, nil
	}
	srcVal, ok := src.(bool)
	if !ok {
		return nil, errors.New(op).Errorf("Given parameter not a bool, got %T", src)
	}
	return null.BoolFrom(srcVal), nil
}

func NullInt(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullInt"
	if src == nil {
		return null.Int{}, nil
	}
	n, err := CheckInt64(op, src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	i, err := safecast.Conv[int](n)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return null.IntFrom(i), nil
}

func NullInt64(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullInt64"
	if src == nil {
		return null.Int64{}, nil
	}
	n, err := CheckInt64(op, src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return null.Int64From(n), nil
}

func NullFloat64(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullFloat64"
	if src == nil {
		return null.Float64{}, nil
	}
	f, err := CheckFloat64(op, src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return null.Float64From(f), nil
}

// NullTime parses strings with the run's default date format. Integers are unix seconds.
func NullTime(src any, ctx *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullTime"
	if src == nil {
		return null.Time{}, nil
	}
	t, err := strategy.TimeFrom(src, ctx.DefaultDateFormat())
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return null.TimeFrom(t), nil
}

// NullJSON re-encodes the decoded subtree, keeping object key order.
func NullJSON(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.NullJSON"
	if src == nil {
		return null.JSON{}, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return null.JSONFrom(raw), nil
}

// BoilerJSON is NullJSON for sqlboiler's types.JSON. Null becomes a nil document.
func BoilerJSON(src any, _ *mapping.Context) (any, error) {
	const op errors.Op = "converters.BoilerJSON"
	if src == nil {
		return types.JSON(nil), nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return types.JSON(raw), nil
}
