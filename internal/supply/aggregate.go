// Package supply turns the loosely typed USDT section of the transparency feed
// into a single supply figure.
//
// Only keys starting with FieldPrefix take part. Each value must be a JSON
// number or a numeric string; anything else fails the whole aggregation
// rather than being skipped, so a schema change upstream surfaces as an error
// instead of an understated supply.
package supply

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// FieldPrefix selects the supply fields. Matching is case-sensitive and by prefix.
const FieldPrefix = "totaltokens"

// Contribution is one qualifying field and its coerced value.
type Contribution struct {
	Key   string
	Value float64
}

// Aggregate sums every qualifying field. The first invalid value aborts with a
// *FieldError; no qualifying field yields ErrNoMatchingFields.
func Aggregate(fields map[string]any) (float64, error) {
	_, total, err := Breakdown(fields)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Breakdown applies the same policy as Aggregate and also returns the
// individual contributions ordered by key.
func Breakdown(fields map[string]any) ([]Contribution, float64, error) {
	var (
		contributions []Contribution
		total         float64
	)

	// sorted so the reported key is stable across runs
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if !strings.HasPrefix(key, FieldPrefix) {
			continue
		}

		value, err := Coerce(fields[key])
		if err != nil {
			return nil, 0, &FieldError{Key: key, Err: err}
		}

		contributions = append(contributions, Contribution{Key: key, Value: value})
		total += value
		if math.IsInf(total, 0) {
			return nil, 0, &FieldError{Key: key, Err: &NonFiniteValueError{Value: total}}
		}
	}

	if len(contributions) == 0 {
		return nil, 0, ErrNoMatchingFields
	}

	return contributions, total, nil
}

// Coerce converts one decoded JSON value into a finite float64.
func Coerce(value any) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		numeric, err := v.Float64()
		if err != nil {
			return 0, &NumberOutOfRangeError{Value: v.String()}
		}
		return ensureFinite(numeric)
	case float64:
		return ensureFinite(v)
	case string:
		if err := checkDecimalSyntax(v); err != nil {
			return 0, &InvalidNumericStringError{Value: v, Err: err}
		}
		numeric, err := strconv.ParseFloat(v, 64)
		if err != nil {
			// overflowing literals parse to ±Inf and are rejected below
			if !errors.Is(err, strconv.ErrRange) {
				return 0, &InvalidNumericStringError{Value: v, Err: err}
			}
		}
		return ensureFinite(numeric)
	case bool:
		return 0, &UnsupportedValueTypeError{TypeName: "bool"}
	case []any:
		return 0, &UnsupportedValueTypeError{TypeName: "array"}
	case map[string]any:
		return 0, &UnsupportedValueTypeError{TypeName: "object"}
	case nil:
		return 0, &UnsupportedValueTypeError{TypeName: "null"}
	default:
		return 0, &UnsupportedValueTypeError{TypeName: fmt.Sprintf("%T", value)}
	}
}

// checkDecimalSyntax rejects the Go literal forms ParseFloat accepts beyond
// plain decimal notation: digit separators and hexadecimal mantissas.
func checkDecimalSyntax(s string) error {
	if strings.Contains(s, "_") {
		return errors.New("digit separators are not allowed")
	}
	unsigned := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	if len(unsigned) >= 2 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return errors.New("hexadecimal notation is not allowed")
	}
	return nil
}

func ensureFinite(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &NonFiniteValueError{Value: value}
	}
	return value, nil
}
