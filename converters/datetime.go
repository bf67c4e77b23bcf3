package converters

import (
	"time"

	"github.com/Station-Manager/errors"
)

// Date is a calendar date accepted as YYYYMMDD or YYYY-MM-DD.
type Date struct {
	time.Time
}

// TimeOfDay is a UTC wall-clock time accepted as HHMM or HH:MM.
type TimeOfDay struct {
	time.Time
}

// ParseDate reads a date in YYYYMMDD or YYYY-MM-DD format.
func ParseDate(src any) (Date, error) {
	const op errors.Op = "converters.ParseDate"
	srcVal, err := CheckString(op, src)
	if err != nil {
		return Date{}, errors.New(op).Err(err)
	}

	var retVal time.Time
	switch len(srcVal) {
	case 8:
		retVal, err = time.Parse("20060102", srcVal)
	case 10:
		if srcVal[4] != '-' || srcVal[7] != '-' {
			return Date{}, errors.New(op).Msg(ErrMsgBadDateFormat)
		}
		retVal, err = time.Parse("2006-01-02", srcVal)
	default:
		return Date{}, errors.New(op).Msg(ErrMsgBadDateFormat)
	}
	if err != nil {
		return Date{}, errors.New(op).Err(err).Msg(ErrMsgBadDateFormat)
	}
	return Date{retVal}, nil
}

// ParseTimeOfDay reads a time in HHMM or HH:MM format.
func ParseTimeOfDay(src any) (TimeOfDay, error) {
	const op errors.Op = "converters.ParseTimeOfDay"
	srcVal, err := CheckString(op, src)
	if err != nil {
		return TimeOfDay{}, errors.New(op).Err(err)
	}

	var retVal time.Time
	switch {
	case len(srcVal) == 5 && srcVal[2] == ':':
		retVal, err = time.Parse("15:04", srcVal)
	case len(srcVal) == 4:
		retVal, err = time.Parse("1504", srcVal)
	default:
		return TimeOfDay{}, errors.New(op).Msg(ErrMsgBadTimeFormat)
	}
	if err != nil {
		return TimeOfDay{}, errors.New(op).Err(err).Msg(ErrMsgBadTimeFormat)
	}
	return TimeOfDay{retVal}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Format("2006-01-02") }

// String formats the time as HH:MM.
func (t TimeOfDay) String() string { return t.Format("15:04") }
