// Package mapping carries the state of one mapping run: the current JSON path,
// the collected data errors and the option bag that controls the run.
package mapping

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/Station-Manager/jsonmapper/config"
)

// Context is the state of a single mapping run. It is not safe for concurrent
// use and must never be shared between independent runs.
type Context struct {
	root    any
	path    []string
	errs    []Error
	options map[string]any
	// reporting disables raising: data errors are always collected.
	reporting bool
}

// NewContext creates a run context for root with the given options.
func NewContext(root any, options map[string]any) *Context {
	opts := make(map[string]any, len(options))
	for k, v := range options {
		opts[k] = v
	}
	return &Context{root: root, options: opts}
}

// NewReportingContext creates a context that collects every data error instead of raising it.
func NewReportingContext(root any, options map[string]any) *Context {
	c := NewContext(root, options)
	c.options[config.OptCollectErrors] = true
	c.reporting = true
	return c
}

// Root returns the original input of the run.
func (c *Context) Root() any { return c.root }

// Path returns the dot-notation path of the current position.
func (c *Context) Path() string {
	if len(c.path) == 0 {
		return "$"
	}
	return "$." + strings.Join(c.path, ".")
}

// PathWith returns the path that would result from pushing segment.
func (c *Context) PathWith(segment any) string {
	return c.Path() + "." + segmentString(segment)
}

// Depth returns the number of pushed segments.
func (c *Context) Depth() int { return len(c.path) }

// WithPathSegment pushes segment, runs fn and pops the segment again, even when fn fails or panics.
func (c *Context) WithPathSegment(segment any, fn func(*Context) (any, error)) (any, error) {
	c.path = append(c.path, segmentString(segment))
	defer func() { c.path = c.path[:len(c.path)-1] }()
	return fn(c)
}

// WithSegment is the typed form of Context.WithPathSegment.
func WithSegment[T any](c *Context, segment any, fn func(*Context) (T, error)) (T, error) {
	c.path = append(c.path, segmentString(segment))
	defer func() { c.path = c.path[:len(c.path)-1] }()
	return fn(c)
}

// AddError records a data error at the current path. It is a no-op when error collection is off.
func (c *Context) AddError(message string, cause error) {
	if !c.CollectErrors() {
		return
	}
	e := Error{Path: c.Path(), Message: message, Cause: cause}
	var me *Error
	if as(cause, &me) {
		e.Kind = me.Kind
		e.Path = me.Path
		e.Cause = me.Cause
	}
	c.errs = append(c.errs, e)
}

// Fail handles a data error according to the run policy. Strict runs get the
// error back and must abort; every other run records it and continues.
func (c *Context) Fail(err *Error) error {
	if err == nil {
		return nil
	}
	if c.Raising() {
		return err
	}
	if c.CollectErrors() {
		c.errs = append(c.errs, *err)
	}
	return nil
}

// Reject is Fail for converters: it returns the data error in strict runs
// and ErrRejected otherwise, so the caller leaves its target untouched.
func (c *Context) Reject(err *Error) error {
	if ferr := c.Fail(err); ferr != nil {
		return ferr
	}
	return ErrRejected
}

// Raising reports whether data errors abort the run.
func (c *Context) Raising() bool { return c.StrictMode() && !c.reporting }

// Reporting reports whether the run collects errors for a report.
func (c *Context) Reporting() bool { return c.reporting }

// Errors returns a copy of the recorded errors in discovery order.
func (c *Context) Errors() []Error {
	out := make([]Error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Report freezes the recorded errors.
func (c *Context) Report() Report { return NewReport(c.errs) }

// Option returns a raw option value.
func (c *Context) Option(key string) (any, bool) {
	v, ok := c.options[key]
	return v, ok
}

func (c *Context) StrictMode() bool {
	return config.BoolOption(c.options, config.OptStrictMode, false)
}

func (c *Context) CollectErrors() bool {
	return config.BoolOption(c.options, config.OptCollectErrors, true)
}

func (c *Context) EmptyStringIsNull() bool {
	return config.BoolOption(c.options, config.OptEmptyStringIsNull, false)
}

func (c *Context) IgnoreUnknownProperties() bool {
	return config.BoolOption(c.options, config.OptIgnoreUnknownProperties, false)
}

func (c *Context) TreatNullAsEmptyCollection() bool {
	return config.BoolOption(c.options, config.OptTreatNullAsEmptyCollection, false)
}

func (c *Context) AllowScalarToObjectCasting() bool {
	return config.BoolOption(c.options, config.OptAllowScalarToObjectCasting, false)
}

// DefaultDateFormat returns the configured layout, or config.DefaultDateFormat when unset, empty or not a string.
func (c *Context) DefaultDateFormat() string {
	v, ok := c.options[config.OptDefaultDateFormat]
	if !ok {
		return config.DefaultDateFormat
	}
	s, isString := v.(string)
	if !isString || s == "" {
		return config.DefaultDateFormat
	}
	return s
}

func segmentString(segment any) string {
	switch s := segment.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return cast.ToString(segment)
	}
}
