package supply

import (
	"errors"
	"fmt"
)

// ErrNoMatchingFields is returned when no key carries the supply prefix. An
// empty selection points at an upstream schema change, never a zero supply.
var ErrNoMatchingFields = errors.New("no supply fields found in transparency payload")

// FieldError ties a coercion failure to the key that caused it.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid supply value for key %s: %v", e.Key, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NumberOutOfRangeError reports a JSON number float64 cannot represent.
type NumberOutOfRangeError struct {
	Value string
}

func (e *NumberOutOfRangeError) Error() string {
	return fmt.Sprintf("number exceeds f64 range: %s", e.Value)
}

// InvalidNumericStringError reports a string value that is not a float literal.
type InvalidNumericStringError struct {
	Value string
	Err   error
}

func (e *InvalidNumericStringError) Error() string {
	return fmt.Sprintf("failed to parse string as number: %s: %v", e.Value, e.Err)
}

func (e *InvalidNumericStringError) Unwrap() error { return e.Err }

// UnsupportedValueTypeError reports a bool, array, object or null value.
type UnsupportedValueTypeError struct {
	TypeName string
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("unsupported value type %s", e.TypeName)
}

// NonFiniteValueError reports NaN or an infinity after coercion.
type NonFiniteValueError struct {
	Value float64
}

func (e *NonFiniteValueError) Error() string {
	return fmt.Sprintf("non-finite number encountered: %v", e.Value)
}
