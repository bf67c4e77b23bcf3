// Package naming converts incoming JSON keys to property names.
package naming

import "github.com/iancoleman/strcase"

// Converter maps a raw JSON key to a property name. Implementations must be
// pure and return a value for every input, including the empty string.
type Converter interface {
	Convert(key string) string
}

// Func adapts a plain function to Converter.
type Func func(string) string

func (f Func) Convert(key string) string { return f(key) }

type identity struct{}

func (identity) Convert(key string) string { return key }

type snakeToCamel struct{}

func (snakeToCamel) Convert(key string) string { return strcase.ToLowerCamel(key) }

type snakeToPascal struct{}

func (snakeToPascal) Convert(key string) string { return strcase.ToCamel(key) }

var (
	// Identity leaves keys unchanged.
	Identity Converter = identity{}
	// SnakeToCamel turns first_name into firstName.
	SnakeToCamel Converter = snakeToCamel{}
	// SnakeToPascal turns first_name into FirstName, the Go field naming.
	SnakeToPascal Converter = snakeToPascal{}
)
