// Package converters provides custom handlers for nullable database types and
// a few formatted value classes (dates, times of day, frequencies).
package converters

import (
	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/types"

	"github.com/Station-Manager/jsonmapper/classes"
	"github.com/Station-Manager/jsonmapper/custom"
	"github.com/Station-Manager/jsonmapper/mapping"
)

type valueClass struct {
	register func(*classes.Registry, ...string) (*classes.Class, error)
	handler  custom.Func
}

var valueClasses = []valueClass{
	{classes.RegisterValue[null.String], NullString},
	{classes.RegisterValue[null.Bool], NullBool},
	{classes.RegisterValue[null.Int], NullInt},
	{classes.RegisterValue[null.Int64], NullInt64},
	{classes.RegisterValue[null.Float64], NullFloat64},
	{classes.RegisterValue[null.Time], NullTime},
	{classes.RegisterValue[null.JSON], NullJSON},
	{classes.RegisterValue[types.JSON], BoilerJSON},
	{classes.RegisterValue[Date], func(src any, _ *mapping.Context) (any, error) { return ParseDate(src) }},
	{classes.RegisterValue[TimeOfDay], func(src any, _ *mapping.Context) (any, error) { return ParseTimeOfDay(src) }},
	{classes.RegisterValue[Frequency], func(src any, _ *mapping.Context) (any, error) { return ParseFrequency(src) }},
}

// Register adds every value class of this package to reg and its handler to handlers.
// Class names are the qualified Go type names, e.g. "null.String" or "converters.Date".
func Register(reg *classes.Registry, handlers *custom.Registry) error {
	for _, vc := range valueClasses {
		c, err := vc.register(reg)
		if err != nil {
			return err
		}
		if err := handlers.Register(c.Name, vc.handler); err != nil {
			return err
		}
	}
	return nil
}
