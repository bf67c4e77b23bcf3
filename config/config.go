// Package config holds the immutable mapping policy.
//
// A Configuration is a value: every With* method returns a modified copy, so a
// single Configuration can be shared between goroutines and mapping calls.
// It converts to and from the flat option map consumed by mapping.Context.
package config

import (
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DefaultDateFormat is the layout used for date-time values when none is declared or configured.
const DefaultDateFormat = time.RFC3339

// Option keys of the flat option map.
const (
	OptStrictMode                 = "strict_mode"
	OptCollectErrors              = "collect_errors"
	OptEmptyStringIsNull          = "empty_string_is_null"
	OptIgnoreUnknownProperties    = "ignore_unknown_properties"
	OptTreatNullAsEmptyCollection = "treat_null_as_empty_collection"
	OptDefaultDateFormat          = "default_date_format"
	OptAllowScalarToObjectCasting = "allow_scalar_to_object_casting"
)

// Configuration is the mapping policy of one or more mapping calls.
type Configuration struct {
	strictMode                 bool
	collectErrors              bool
	emptyStringIsNull          bool
	ignoreUnknownProperties    bool
	treatNullAsEmptyCollection bool
	defaultDateFormat          string
	allowScalarToObjectCasting bool
}

// Default returns the lenient policy that collects errors.
func Default() Configuration {
	return Configuration{collectErrors: true, defaultDateFormat: DefaultDateFormat}
}

// Lenient is an alias of Default.
func Lenient() Configuration { return Default() }

// Strict returns a policy that aborts on the first data error.
func Strict() Configuration { return Default().WithStrictMode(true) }

func (c Configuration) WithStrictMode(v bool) Configuration {
	c.strictMode = v
	return c
}

func (c Configuration) WithCollectErrors(v bool) Configuration {
	c.collectErrors = v
	return c
}

func (c Configuration) WithEmptyStringIsNull(v bool) Configuration {
	c.emptyStringIsNull = v
	return c
}

func (c Configuration) WithIgnoreUnknownProperties(v bool) Configuration {
	c.ignoreUnknownProperties = v
	return c
}

func (c Configuration) WithTreatNullAsEmptyCollection(v bool) Configuration {
	c.treatNullAsEmptyCollection = v
	return c
}

// WithDefaultDateFormat sets the Go time layout used for date-time values. An empty layout resets to DefaultDateFormat.
func (c Configuration) WithDefaultDateFormat(layout string) Configuration {
	if layout == "" {
		layout = DefaultDateFormat
	}
	c.defaultDateFormat = layout
	return c
}

func (c Configuration) WithAllowScalarToObjectCasting(v bool) Configuration {
	c.allowScalarToObjectCasting = v
	return c
}

func (c Configuration) StrictMode() bool                 { return c.strictMode }
func (c Configuration) CollectErrors() bool              { return c.collectErrors }
func (c Configuration) EmptyStringIsNull() bool          { return c.emptyStringIsNull }
func (c Configuration) IgnoreUnknownProperties() bool    { return c.ignoreUnknownProperties }
func (c Configuration) TreatNullAsEmptyCollection() bool { return c.treatNullAsEmptyCollection }
func (c Configuration) AllowScalarToObjectCasting() bool { return c.allowScalarToObjectCasting }

// DefaultDateFormat returns the configured layout, falling back to the package default.
func (c Configuration) DefaultDateFormat() string {
	if c.defaultDateFormat == "" {
		return DefaultDateFormat
	}
	return c.defaultDateFormat
}

// ToOptions flattens the configuration into an option map.
func (c Configuration) ToOptions() map[string]any {
	return map[string]any{
		OptStrictMode:                 c.strictMode,
		OptCollectErrors:              c.collectErrors,
		OptEmptyStringIsNull:          c.emptyStringIsNull,
		OptIgnoreUnknownProperties:    c.ignoreUnknownProperties,
		OptTreatNullAsEmptyCollection: c.treatNullAsEmptyCollection,
		OptDefaultDateFormat:          c.DefaultDateFormat(),
		OptAllowScalarToObjectCasting: c.allowScalarToObjectCasting,
	}
}

// FromOptions builds a configuration from an option map. Missing or
// unparsable entries keep their Default() value.
func FromOptions(opts map[string]any) Configuration {
	c := Default()
	c.strictMode = boolOption(opts, OptStrictMode, c.strictMode)
	c.collectErrors = boolOption(opts, OptCollectErrors, c.collectErrors)
	c.emptyStringIsNull = boolOption(opts, OptEmptyStringIsNull, c.emptyStringIsNull)
	c.ignoreUnknownProperties = boolOption(opts, OptIgnoreUnknownProperties, c.ignoreUnknownProperties)
	c.treatNullAsEmptyCollection = boolOption(opts, OptTreatNullAsEmptyCollection, c.treatNullAsEmptyCollection)
	c.allowScalarToObjectCasting = boolOption(opts, OptAllowScalarToObjectCasting, c.allowScalarToObjectCasting)
	if v, ok := opts[OptDefaultDateFormat]; ok {
		if s, err := cast.ToStringE(v); err == nil && s != "" {
			c.defaultDateFormat = s
		}
	}
	return c
}

// FromViper reads the option keys from a viper instance, optionally below a key prefix (e.g. "mapper").
func FromViper(v *viper.Viper, prefix string) Configuration {
	if v == nil {
		return Default()
	}
	sub := v
	if prefix != "" {
		sub = v.Sub(prefix)
		if sub == nil {
			return Default()
		}
	}
	opts := make(map[string]any)
	for _, key := range []string{
		OptStrictMode, OptCollectErrors, OptEmptyStringIsNull, OptIgnoreUnknownProperties,
		OptTreatNullAsEmptyCollection, OptDefaultDateFormat, OptAllowScalarToObjectCasting,
	} {
		if sub.IsSet(key) {
			opts[key] = sub.Get(key)
		}
	}
	return FromOptions(opts)
}

// BoolOption reads a boolean option, returning def when absent or not coercible.
func BoolOption(opts map[string]any, key string, def bool) bool {
	return boolOption(opts, key, def)
}

func boolOption(opts map[string]any, key string, def bool) bool {
	v, ok := opts[key]
	if !ok || v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}
