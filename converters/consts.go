package converters

const (
	ErrMsgEmptyString   = "Parameter cannot be empty."
	ErrMsgBadTimeFormat = "Bad time format, expected HH:MM or HHMM"
	ErrMsgBadDateFormat = "Bad date format, expected YYYYMMDD or YYYY-MM-DD"
	ErrMsgBadFrequency  = "Bad frequency, expected a positive number of MHz"
)
