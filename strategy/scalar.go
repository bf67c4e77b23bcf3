package strategy

import (
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/goccy/go-json"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

var (
	errNotNumeric = stderrors.New("not a numeric value")
	errFraction   = stderrors.New("has a fractional part")
	errNotString  = stderrors.New("not a string")
)

// Null returns null for null input. Non-nullable enum and date-time targets are
// left to their own strategies, which reject null, and so are collections when
// null is treated as an empty collection. Non-nullable value classes get null
// through their custom handler.
type Null struct {
	registry *classes.Registry
}

func (s *Null) Supports(value any, d descriptor.Descriptor, ctx *mapping.Context) bool {
	if value != nil {
		return false
	}
	if d.IsCollection() && ctx.TreatNullAsEmptyCollection() {
		return false
	}
	if c, ok := classOf(s.registry, d); ok && !d.Nullable {
		switch c.Kind {
		case classes.KindEnum, classes.KindDateTime, classes.KindDuration, classes.KindValue:
			return false
		}
	}
	return true
}

func (s *Null) Convert(any, descriptor.Descriptor, *mapping.Context) (any, error) {
	return nil, nil
}

// Builtin coerces scalars to int, float, bool or string targets.
type Builtin struct{}

func (Builtin) Supports(_ any, d descriptor.Descriptor, _ *mapping.Context) bool {
	return d.IsScalar()
}

func (Builtin) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	out, err := Coerce(value, d.Scalar)
	if err != nil {
		return nil, mismatch(ctx, d, value, err)
	}
	return out, nil
}

// Coerce converts a scalar to kind. Numeric strings become numbers; "0", "",
// zero numbers and false become false. Results are int64, float64, bool or string.
func Coerce(value any, kind descriptor.ScalarKind) (any, error) {
	switch kind {
	case descriptor.Int:
		return toInt(value)
	case descriptor.Float:
		return toFloat(value)
	case descriptor.Bool:
		return toBool(value)
	case descriptor.String:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, errNotString
	default:
		return nil, fmt.Errorf("unknown scalar kind %d", kind)
	}
}

// number normalises any Go number, or json.Number, to int64 or float64.
func number(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintNumber(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintNumber(n)
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func uintNumber(u uint64) (any, bool) {
	if i, err := safecast.Conv[int64](u); err == nil {
		return i, true
	}
	return float64(u), true
}

func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

func toInt(value any) (any, error) {
	n, ok := number(value)
	if !ok {
		s, isString := value.(string)
		if !isString {
			return nil, errNotNumeric
		}
		if n, ok = parseNumber(s); !ok {
			return nil, errNotNumeric
		}
	}
	switch x := n.(type) {
	case int64:
		return x, nil
	default:
		f := x.(float64)
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%g %w", f, errFraction)
		}
		i, err := safecast.Convert[int64](f)
		if err != nil {
			return nil, err
		}
		return i, nil
	}
}

func toFloat(value any) (any, error) {
	n, ok := number(value)
	if !ok {
		s, isString := value.(string)
		if !isString {
			return nil, errNotNumeric
		}
		if n, ok = parseNumber(s); !ok {
			return nil, errNotNumeric
		}
	}
	if i, isInt := n.(int64); isInt {
		return float64(i), nil
	}
	return n, nil
}

func toBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return v != "" && v != "0", nil
	}
	n, ok := number(value)
	if !ok {
		return nil, fmt.Errorf("%s is not a scalar", mapping.DescribeValue(value))
	}
	switch x := n.(type) {
	case int64:
		return x != 0, nil
	default:
		return x.(float64) != 0, nil
	}
}

// Passthrough returns every value unchanged. It is always last.
type Passthrough struct{}

func (Passthrough) Supports(any, descriptor.Descriptor, *mapping.Context) bool { return true }

func (Passthrough) Convert(value any, _ descriptor.Descriptor, _ *mapping.Context) (any, error) {
	return value, nil
}
