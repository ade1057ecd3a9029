package impacts

import (
	"errors"
	"fmt"
)

var (
	// ErrRuleNotFound is returned when a rule ID is not in the RuleSet.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrInvalidRuleID is returned for rule IDs that are empty or lack the rule_ prefix.
	ErrInvalidRuleID = errors.New("invalid rule id")

	// ErrSyntax is matched by both LexError and SyntaxError.
	ErrSyntax = errors.New("invalid syntax")

	// ErrUnresolvedVariable is returned when a variable has no value in the environment.
	ErrUnresolvedVariable = errors.New("unresolved variable")

	// ErrUnresolvedRule is returned when a rule reference names a rule that
	// was never defined or failed to compile.
	ErrUnresolvedRule = errors.New("unresolved rule reference")

	// ErrDivisionByZero is returned when the divisor of '/' evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrTypeMismatch is returned when an operand is not a number or boolean.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCyclicReference is returned when a rule refers to itself, directly or
	// through other rules.
	ErrCyclicReference = errors.New("cyclic rule reference")

	// ErrNotCompiled is returned when a rule is evaluated before it was compiled.
	ErrNotCompiled = errors.New("rule not compiled")

	// ErrUnknownNode is returned by evaluators that meet a node they cannot evaluate.
	ErrUnknownNode = errors.New("unknown expression node")

	// ErrNoData is returned by a VariableResolver when the backend has no data
	// for a variable. The variable is left out of the environment.
	ErrNoData = errors.New("no data available")
)

// LexError reports input that matches no token of the rule language.
type LexError struct {
	Pos  int    // byte offset in the expression
	Text string // the unrecognized input, starting at Pos
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("invalid input %q at offset %d: %s", e.Text, e.Pos, e.Msg)
}

func (e *LexError) Is(target error) bool { return target == ErrSyntax }

// SyntaxError reports a token sequence that does not form an expression.
type SyntaxError struct {
	Pos   int    // byte offset of the offending token
	Token string // text of the offending token; empty at end of input
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid syntax at end of expression: %s", e.Msg)
	}
	return fmt.Sprintf("invalid syntax at offset %d near %q: %s", e.Pos, e.Token, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }
