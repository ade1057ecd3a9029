package expr

import (
	"fmt"

	"github.com/shopspring/decimal"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Operands of arithmetic and comparison operators are numbers; booleans
// count as 1 and 0.
func operands(op Op, l, r impacts.Value) (decimal.Decimal, decimal.Decimal, error) {
	a, ok := l.Decimal()
	if !ok {
		return a, a, fmt.Errorf("%w: left operand of %s is %s", impacts.ErrTypeMismatch, op, describe(l))
	}
	b, ok := r.Decimal()
	if !ok {
		return a, b, fmt.Errorf("%w: right operand of %s is %s", impacts.ErrTypeMismatch, op, describe(r))
	}
	return a, b, nil
}

func arithmetic(op Op, l, r impacts.Value) (impacts.Value, error) {
	a, b, err := operands(op, l, r)
	if err != nil {
		return impacts.Value{}, err
	}
	switch op {
	case OpAdd:
		return impacts.NumberValue(a.Add(b)), nil
	case OpSub:
		return impacts.NumberValue(a.Sub(b)), nil
	case OpMul:
		return impacts.NumberValue(a.Mul(b)), nil
	case OpDiv:
		if b.IsZero() {
			return impacts.Value{}, fmt.Errorf("%w: %s / %s", impacts.ErrDivisionByZero, a, b)
		}
		return impacts.NumberValue(a.Div(b)), nil
	}
	return impacts.Value{}, fmt.Errorf("%s is not an arithmetic operator", op)
}

func compare(op Op, l, r impacts.Value) (impacts.Value, error) {
	a, b, err := operands(op, l, r)
	if err != nil {
		return impacts.Value{}, err
	}
	c := a.Cmp(b)
	switch op {
	case OpGt:
		return impacts.BoolValue(c > 0), nil
	case OpLt:
		return impacts.BoolValue(c < 0), nil
	case OpGe:
		return impacts.BoolValue(c >= 0), nil
	case OpLe:
		return impacts.BoolValue(c <= 0), nil
	case OpEq:
		return impacts.BoolValue(c == 0), nil
	}
	return impacts.Value{}, fmt.Errorf("%s is not a comparison operator", op)
}

func truthy(v impacts.Value, what string) (bool, error) {
	b, ok := v.Truthy()
	if !ok {
		return false, fmt.Errorf("%w: %s is %s", impacts.ErrTypeMismatch, what, describe(v))
	}
	return b, nil
}

func describe(v impacts.Value) string {
	if v.Type == nil {
		return "untyped"
	}
	return fmt.Sprintf("%s %v", v.Type, v.Val)
}
