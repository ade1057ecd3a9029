package impacts

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Type defines a type in the rule language's type system.
// Rule expressions produce either numbers or booleans.
type Type interface {
	// Implements the stringer interface
	String() string

	// Zero returns the zero value of the type as a Value.
	Zero() Value
}

// Number is an exact decimal number. Literals, resolved climate variables and
// arithmetic results are all Numbers.
type Number struct{}

// Bool is the type of comparisons, logical operators and the region predicate.
type Bool struct{}

func (Number) String() string { return "number" }
func (Bool) String() string   { return "bool" }

func (Number) Zero() Value { return NumberValue(decimal.Zero) }
func (Bool) Zero() Value   { return BoolValue(false) }

// Value is the result of evaluating an expression, or a value supplied
// by a VariableResolver. Inspect the Type to determine what it is.
// Numbers are stored as decimal.Decimal, booleans as bool.
type Value struct {
	Val  any  // the value stored
	Type Type // the type stored
}

// NumberValue wraps an exact decimal number.
func NumberValue(d decimal.Decimal) Value {
	return Value{Val: d, Type: Number{}}
}

// FloatValue converts a float produced by a backend into a Number.
func FloatValue(f float64) Value {
	return NumberValue(decimal.NewFromFloat(f))
}

// IntValue wraps an integer as a Number.
func IntValue(i int64) Value {
	return NumberValue(decimal.NewFromInt(i))
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{Val: b, Type: Bool{}}
}

// ParseNumber parses a decimal literal such as "-6" or "5.01" into a Number.
func ParseNumber(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return NumberValue(d), nil
}

// IsValid reports whether v carries one of the known types with a matching Go value.
func (v Value) IsValid() bool {
	switch v.Type.(type) {
	case Number:
		_, ok := v.Val.(decimal.Decimal)
		return ok
	case Bool:
		_, ok := v.Val.(bool)
		return ok
	}
	return false
}

// Decimal returns the numeric value of v. Booleans are coerced to 1 and 0.
// The second return value is false if v is neither a number nor a boolean.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch x := v.Val.(type) {
	case decimal.Decimal:
		if _, ok := v.Type.(Number); ok {
			return x, true
		}
	case bool:
		if _, ok := v.Type.(Bool); ok {
			if x {
				return decimal.NewFromInt(1), true
			}
			return decimal.Zero, true
		}
	}
	return decimal.Decimal{}, false
}

// Truthy returns the logical value of v. Numbers are true when non-zero.
func (v Value) Truthy() (bool, bool) {
	switch x := v.Val.(type) {
	case bool:
		return x, v.IsValid()
	case decimal.Decimal:
		return !x.IsZero(), v.IsValid()
	}
	return false, false
}

// Native returns v as a plain Go value: bool, or float64 for numbers.
// Used when results leave the engine, e.g. for JSON output.
func (v Value) Native() any {
	switch x := v.Val.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case bool:
		return x
	}
	return nil
}

func (v Value) String() string {
	switch x := v.Val.(type) {
	case decimal.Decimal:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%v", v.Val)
}

// Equal reports whether two values have the same type and value.
func (v Value) Equal(o Value) bool {
	if !v.IsValid() || !o.IsValid() {
		return false
	}
	if v.Type.String() != o.Type.String() {
		return false
	}
	switch x := v.Val.(type) {
	case decimal.Decimal:
		return x.Equal(o.Val.(decimal.Decimal))
	case bool:
		return x == o.Val.(bool)
	}
	return false
}
