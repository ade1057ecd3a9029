package impacts

import "context"

// Evaluator is the interface implemented by types that can compile and
// evaluate rule expressions. The expr package provides the implementation
// of the rule language.
type Evaluator interface {
	Compiler

	// Eval evaluates the compiled rule against the environment.
	// Diagnostic information is only returned if requested in opts.
	Eval(ctx context.Context, r *Rule, env Environment, opts EvalOptions) (Value, *Diagnostics, error)
}

// EvalOptions determine how a rule is evaluated.
type EvalOptions struct {
	// Return a Diagnostics tree of the evaluation.
	ReturnDiagnostics bool `json:"return_diagnostics"`
}

// EvalOption is a functional option to specify how evaluation occurs.
type EvalOption func(o *EvalOptions)

// ReturnDiagnostics asks the evaluator to record the value of every
// evaluated sub-expression.
func ReturnDiagnostics(b bool) EvalOption {
	return func(o *EvalOptions) {
		o.ReturnDiagnostics = b
	}
}

// NewEvalOptions applies the options in order.
func NewEvalOptions(opts ...EvalOption) EvalOptions {
	var o EvalOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
