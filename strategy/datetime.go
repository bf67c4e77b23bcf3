package strategy

import (
	stderrors "errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/descriptor"
	"github.com/Station-Manager/jsonmapper/mapping"
)

var (
	errNotDuration = stderrors.New("not an ISO-8601 or Go duration")
	errNotTime     = stderrors.New("not a date string or unix timestamp")
)

// DateTime converts strings and unix seconds to time.Time, and ISO-8601
// durations, Go durations or seconds to time.Duration.
type DateTime struct {
	registry *classes.Registry
}

func (s *DateTime) Supports(_ any, d descriptor.Descriptor, _ *mapping.Context) bool {
	c, ok := classOf(s.registry, d)
	return ok && (c.Kind == classes.KindDateTime || c.Kind == classes.KindDuration)
}

func (s *DateTime) Convert(value any, d descriptor.Descriptor, ctx *mapping.Context) (any, error) {
	c, _ := classOf(s.registry, d)
	if value == nil {
		return nil, mismatch(ctx, d, value, nil)
	}
	var (
		out any
		err error
	)
	if c.Kind == classes.KindDuration {
		out, err = toDuration(value)
	} else {
		layout := d.Format
		if layout == "" {
			layout = ctx.DefaultDateFormat()
		}
		out, err = TimeFrom(value, layout)
	}
	if err != nil {
		return nil, mismatch(ctx, d, value, err)
	}
	return out, nil
}

// TimeFrom converts a time.Time, a string in layout or unix seconds to a time.Time.
func TimeFrom(value any, layout string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("does not match layout %q", layout)
		}
		return t, nil
	}
	n, err := toInt(value)
	if err != nil {
		return time.Time{}, errNotTime
	}
	return time.Unix(n.(int64), 0).UTC(), nil
}

func toDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case string:
		return ParseDuration(v)
	}
	n, err := toInt(value)
	if err != nil {
		return 0, errNotDuration
	}
	secs := n.(int64)
	if secs > math.MaxInt64/int64(time.Second) || secs < math.MinInt64/int64(time.Second) {
		return 0, fmt.Errorf("%d seconds overflows a duration", secs)
	}
	return time.Duration(secs) * time.Second, nil
}

var isoDuration = regexp.MustCompile(`^([-+])?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

var isoUnits = [...]time.Duration{
	365 * 24 * time.Hour,
	30 * 24 * time.Hour,
	7 * 24 * time.Hour,
	24 * time.Hour,
	time.Hour,
	time.Minute,
	time.Second,
}

// ParseDuration parses an ISO-8601 duration such as "P1DT2H30M" or a Go
// duration such as "1h30m". A year counts as 365 days and a month as 30 days.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if m := isoDuration.FindStringSubmatch(s); m != nil && !strings.HasSuffix(s, "T") {
		var (
			total float64
			parts int
		)
		for i, unit := range isoUnits {
			part := m[i+2]
			if part == "" {
				continue
			}
			n, err := strconv.ParseFloat(strings.Replace(part, ",", ".", 1), 64)
			if err != nil {
				return 0, fmt.Errorf("%q: %w", s, errNotDuration)
			}
			total += n * float64(unit)
			parts++
		}
		if parts == 0 {
			return 0, fmt.Errorf("%q: %w", s, errNotDuration)
		}
		if total > math.MaxInt64 {
			return 0, fmt.Errorf("%q overflows a duration", s)
		}
		d := time.Duration(total)
		if m[1] == "-" {
			d = -d
		}
		return d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, errNotDuration)
	}
	return d, nil
}
