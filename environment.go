package impacts

import (
	"context"
	"fmt"
	"maps"
)

// Environment supplies the values a rule is evaluated against: other rules,
// looked up by name, and resolved variables.
type Environment interface {
	Rule(name string) (*Rule, bool)
	Variable(name string) (Value, bool)
}

// Env is the Environment of one resolution run. It is built by the Engine
// before evaluation starts and not modified afterwards, so it is safe for
// concurrent use.
type Env struct {
	rules *RuleSet
	vars  map[string]Value
}

// NewEnv returns an Environment over the rule set and variable values.
// The values map is copied.
func NewEnv(rs *RuleSet, vars map[string]Value) *Env {
	return &Env{
		rules: rs,
		vars:  maps.Clone(vars),
	}
}

func (e *Env) Rule(name string) (*Rule, bool) {
	return e.rules.Rule(name)
}

func (e *Env) Variable(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Variables returns a copy of the resolved variables.
func (e *Env) Variables() map[string]Value {
	return maps.Clone(e.vars)
}

// Area is a geographic region rules are resolved for.
type Area struct {
	Name    string // region name as known to the backend, e.g. "Bulkley-Nechako"
	Coastal bool   // value of the region predicate
	WKT     string // region polygon
}

// RunContext is the fixed context of one resolution run.
type RunContext struct {
	DateRange string // "2020", "2050" or "2080"
	Area      Area
	Ensemble  string
}

// VariableResolver supplies the value of a climate variable.
// Resolve must return the same value for the same variable and context.
// It should return an error wrapping ErrNoData when the backend has nothing
// for the variable.
type VariableResolver interface {
	Resolve(ctx context.Context, v Variable, rc RunContext) (Value, error)
}

// ResolverFunc adapts a function to the VariableResolver interface.
type ResolverFunc func(ctx context.Context, v Variable, rc RunContext) (Value, error)

func (f ResolverFunc) Resolve(ctx context.Context, v Variable, rc RunContext) (Value, error) {
	return f(ctx, v, rc)
}

// StaticResolver resolves variables from a fixed map of name to value,
// ignoring the run context.
type StaticResolver map[string]Value

func (s StaticResolver) Resolve(_ context.Context, v Variable, _ RunContext) (Value, error) {
	val, ok := s[v.Name]
	if !ok {
		return Value{}, fmt.Errorf("%s: %w", v.Name, ErrNoData)
	}
	return val, nil
}
