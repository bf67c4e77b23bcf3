package mapping

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/Station-Manager/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind classifies data errors. Data errors are raised in strict mode and reported otherwise.
type Kind string

const (
	KindUnknownProperty  Kind = "unknown_property"
	KindMissingProperty  Kind = "missing_property"
	KindTypeMismatch     Kind = "type_mismatch"
	KindReadonlyProperty Kind = "readonly_property"
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrUnknownProperty  = stderrors.New("unknown property")
	ErrMissingProperty  = stderrors.New("missing property")
	ErrTypeMismatch     = stderrors.New("type mismatch")
	ErrReadonlyProperty = stderrors.New("readonly property")
	ErrConfiguration    = stderrors.New("mapper configuration error")
	// ErrRejected means a value was dropped after its data error was handled by the context.
	ErrRejected = stderrors.New("value rejected")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnknownProperty:
		return ErrUnknownProperty
	case KindMissingProperty:
		return ErrMissingProperty
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindReadonlyProperty:
		return ErrReadonlyProperty
	default:
		return nil
	}
}

// Error is a path-qualified data error. It is immutable once created.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the kind sentinel of the error.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// UnknownPropertyError is the cause of a KindUnknownProperty error.
type UnknownPropertyError struct {
	Class    string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("property %q is not declared on %s", e.Property, e.Class)
}

// MissingPropertyError is the cause of a KindMissingProperty error.
type MissingPropertyError struct {
	Class    string
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("required property %q of %s is missing", e.Property, e.Class)
}

// ReadonlyPropertyError is the cause of a KindReadonlyProperty error.
type ReadonlyPropertyError struct {
	Class    string
	Property string
}

func (e *ReadonlyPropertyError) Error() string {
	return fmt.Sprintf("property %q of %s is read-only", e.Property, e.Class)
}

// TypeMismatchError is the cause of a KindTypeMismatch error.
type TypeMismatchError struct {
	Expected string
	Actual   string
	Err      error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// UnknownProperty builds the error for an undeclared input key. path must already include the key.
func UnknownProperty(path, class, property string) *Error {
	return &Error{
		Kind:    KindUnknownProperty,
		Path:    path,
		Message: fmt.Sprintf("Unknown property %s on %s.", path, class),
		Cause:   &UnknownPropertyError{Class: class, Property: property},
	}
}

// MissingProperty builds the error for a required property absent from the input.
func MissingProperty(path, class, property string) *Error {
	return &Error{
		Kind:    KindMissingProperty,
		Path:    path,
		Message: fmt.Sprintf("Missing required property %s on %s.", path, class),
		Cause:   &MissingPropertyError{Class: class, Property: property},
	}
}

// ReadonlyProperty builds the error for a write to an initialized read-only property.
func ReadonlyProperty(path, class, property string) *Error {
	return &Error{
		Kind:    KindReadonlyProperty,
		Path:    path,
		Message: fmt.Sprintf("Readonly property %s on %s cannot be overwritten.", path, class),
		Cause:   &ReadonlyPropertyError{Class: class, Property: property},
	}
}

// TypeMismatch builds the error for a value whose shape does not fit the declared type.
func TypeMismatch(path, expected string, value any, cause error) *Error {
	actual := DescribeValue(value)
	msg := fmt.Sprintf("Type mismatch at %s: expected %s, got %s.", path, expected, actual)
	if cause != nil {
		msg = fmt.Sprintf("Type mismatch at %s: expected %s, got %s (%v).", path, expected, actual, cause)
	}
	return &Error{
		Kind:    KindTypeMismatch,
		Path:    path,
		Message: msg,
		Cause:   &TypeMismatchError{Expected: expected, Actual: actual, Err: cause},
	}
}

// DescribeValue names the JSON shape of a decoded value for diagnostics.
func DescribeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		if x == "" {
			return `string("")`
		}
		return fmt.Sprintf("string(%q)", x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case []any:
		return "array"
	case map[string]any, *orderedmap.OrderedMap[string, any]:
		return "object"
	case *orderedmap.OrderedMap[any, any]:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ConfigurationError reports a setup mistake. It is always returned, never reported.
type ConfigurationError struct {
	Op      errors.Op
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrConfiguration.Error())
	if e.Op != "" {
		b.WriteString(" [")
		b.WriteString(string(e.Op))
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configurationf builds a ConfigurationError tagged with op.
func Configurationf(op errors.Op, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapConfiguration builds a ConfigurationError for a failure raised by user code, such as a constructor or resolver.
func WrapConfiguration(op errors.Op, err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Op: op, Message: fmt.Sprintf(format, args...), Err: errors.New(op).Err(err)}
}

// IsDataError reports whether err carries one of the four data error kinds.
func IsDataError(err error) bool {
	var me *Error
	return stderrors.As(err, &me)
}

func as(err error, target **Error) bool {
	if err == nil {
		return false
	}
	return stderrors.As(err, target)
}
