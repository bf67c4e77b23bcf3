package converters

import (
	"math"
	"time"

	"fortio.org/safecast"
	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
)

// CheckString returns src as a non-empty string.
func CheckString(op errors.Op, src any) (string, error) {
	srcVal, ok := src.(string)
	if !ok {
		return "", errors.New(op).Errorf("Given parameter not a string, got %T", src)
	}
	if srcVal == "" {
		return "", errors.New(op).Msg(ErrMsgEmptyString)
	}
	return srcVal, nil
}

// CheckFloat64 returns src as a float64. Integers are accepted when they convert exactly.
func CheckFloat64(op errors.Op, src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.New(op).Errorf("Given parameter is not a finite number: %v", v)
		}
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, errors.New(op).Err(err)
		}
		return f, nil
	}
	n, err := CheckInt64(op, src)
	if err != nil {
		return 0, errors.New(op).Errorf("Given parameter not a number, got %T", src)
	}
	f, err := safecast.Convert[float64](n)
	if err != nil {
		return 0, errors.New(op).Err(err)
	}
	return f, nil
}

// CheckInt64 returns src as an int64. Floats are accepted when they hold an integer value.
func CheckInt64(op errors.Op, src any) (int64, error) {
	var (
		n   int64
		err error
	)
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint:
		n, err = safecast.Conv[int64](v)
	case uint64:
		n, err = safecast.Conv[int64](v)
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return -1, errors.New(op).Errorf("Given parameter has a fractional part: %v", v)
		}
		n, err = safecast.Convert[int64](v)
	case float32:
		return CheckInt64(op, float64(v))
	case json.Number:
		n, err = v.Int64()
	default:
		return -1, errors.New(op).Errorf("Given parameter not a int64, got %T", src)
	}
	if err != nil {
		return -1, errors.New(op).Err(err)
	}
	return n, nil
}

// CheckTime returns src as a time.Time.
func CheckTime(op errors.Op, src any) (time.Time, error) {
	srcVal, ok := src.(time.Time)
	if !ok {
		return time.Time{}, errors.New(op).Errorf("Given parameter not a time.Time, got %T", src)
	}
	return srcVal, nil
}
