package impacts_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// -------------------------------------------------- MOCK EVALUATOR
// mockEvaluator is used for testing
// It provides minimal evaluation of rules and captures
// information about which rules were processed.
//
// It understands these expressions:
//
//	true, false       the boolean
//	bad               fails to compile
//	fail              fails to evaluate
//	var:<name>        requires variable <name> and returns its value
type mockEvaluator struct {
	mu          sync.Mutex
	rules       []string // a list of rule IDs compiled
	rulesTested []string // a list of rule IDs that were evaluated
	// Introduce an artificial delay in evaluating the expression.
	// Used for testing the engine's context cancelation functionality.
	evalDelay time.Duration
}

type program struct {
	expr string
}

var errMockEval = errors.New("mock evaluation failure")

func newMockEvaluator() *mockEvaluator {
	return &mockEvaluator{}
}

func (m *mockEvaluator) Compile(r *impacts.Rule) error {
	m.mu.Lock()
	m.rules = append(m.rules, r.ID)
	m.mu.Unlock()

	if r.Expr == "bad" {
		return &impacts.SyntaxError{Token: "bad", Msg: "mock syntax error"}
	}
	if name, ok := strings.CutPrefix(r.Expr, "var:"); ok {
		v, err := impacts.ParseVariable(name)
		if err != nil {
			return err
		}
		r.Variables = map[string]impacts.Variable{name: v}
	}
	r.Program = program{expr: r.Expr}
	return nil
}

func (m *mockEvaluator) Eval(ctx context.Context, r *impacts.Rule, env impacts.Environment, opts impacts.EvalOptions) (impacts.Value, *impacts.Diagnostics, error) {
	m.mu.Lock()
	m.rulesTested = append(m.rulesTested, r.ID)
	m.mu.Unlock()

	select {
	case <-time.After(m.evalDelay):
	case <-ctx.Done():
		return impacts.Value{}, nil, ctx.Err()
	}

	p, ok := r.Program.(program)
	if !ok {
		return impacts.Value{}, nil, errors.New("compiled program type assertion failed")
	}

	var diagnostics *impacts.Diagnostics
	if opts.ReturnDiagnostics {
		diagnostics = &impacts.Diagnostics{Expr: p.expr}
	}

	switch {
	case p.expr == "true":
		return impacts.BoolValue(true), diagnostics, nil
	case p.expr == "fail":
		return impacts.Value{}, nil, errMockEval
	case strings.HasPrefix(p.expr, "var:"):
		name := strings.TrimPrefix(p.expr, "var:")
		v, ok := env.Variable(name)
		if !ok {
			return impacts.Value{}, nil, impacts.ErrUnresolvedVariable
		}
		return v, diagnostics, nil
	}
	return impacts.BoolValue(false), diagnostics, nil
}

func (m *mockEvaluator) tested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := slices.Clone(m.rulesTested)
	slices.Sort(t)
	return t
}
