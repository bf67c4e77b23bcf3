package converters

import (
	"math"
	"strconv"

	"github.com/Station-Manager/errors"
)

// Frequency is a radio frequency in Hz. Input is given in MHz, as a number or a numeric string.
type Frequency int64

// ParseFrequency converts MHz to Hz, rounding to the nearest Hz.
func ParseFrequency(src any) (Frequency, error) {
	const op errors.Op = "converters.ParseFrequency"
	var (
		mhz float64
		err error
	)
	if s, ok := src.(string); ok {
		if _, err = CheckString(op, s); err != nil {
			return 0, errors.New(op).Err(err)
		}
		mhz, err = strconv.ParseFloat(s, 64)
	} else {
		mhz, err = CheckFloat64(op, src)
	}
	if err != nil {
		return 0, errors.New(op).Err(err).Msg(ErrMsgBadFrequency)
	}
	if mhz <= 0 || math.IsNaN(mhz) || math.IsInf(mhz, 0) {
		return 0, errors.New(op).Msg(ErrMsgBadFrequency)
	}
	return Frequency(math.Round(mhz * 1e6)), nil
}

// MHz formats the frequency in MHz with 3 decimal places.
func (f Frequency) MHz() string {
	return strconv.FormatFloat(float64(f)/1e6, 'f', 3, 64)
}
