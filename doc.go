// Package jsonmapper hydrates registered Go types from decoded JSON.
//
// Basic Usage
//
//	m, _ := jsonmapper.New()
//	classes.MustRegister[User](m.Registry())
//	tree, _ := jsontree.Decode(data)
//	v, err := m.Map(tree, "User")
//
// # Mapping Rules
//
// Map resolves the target class and applies each key of the input object:
//  1. A rename rule (`mapper:"replaces=old_name"`) or the configured name converter picks the property
//  2. The declared property type selects a strategy: null, custom handler, enum,
//     date-time, collection, object, builtin scalar, pass-through
//  3. The converted value is written through a setter method when one exists, else the field
//
// Arrays whose every element is an object or array are mapped element-wise and
// returned as []any in input order, or wrapped into a collection class when
// WithCollectionClass is given.
//
// # Errors
//
// Data errors (unknown, missing and readonly properties, type mismatches) are
// returned from Map in strict mode and dropped in lenient mode. MapWithReport
// collects them instead. Configuration errors (unloadable classes, bad class
// maps, undeclared types) are always returned and match mapping.ErrConfiguration.
//
// # Thread Safety
//
// A Mapper is safe for concurrent use. Registries are copy-on-write and
// property metadata is cached per type.
package jsonmapper
