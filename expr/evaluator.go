package expr

import (
	"context"
	"fmt"
	"strings"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Evaluator implements impacts.Evaluator for the rule language.
// It holds no state and is safe for concurrent use.
type Evaluator struct{}

// NewEvaluator returns an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Compile parses the rule expression and stores the *Program in r.Program.
func (*Evaluator) Compile(r *impacts.Rule) error {
	prog, err := Parse(r.Expr)
	if err != nil {
		return err
	}
	r.Program = prog
	r.Variables = prog.Variables
	r.Region = prog.Region
	return nil
}

// Eval evaluates a compiled rule. Rule references are evaluated recursively
// against the same environment.
//
// && and || evaluate their right operand only when needed, and the ternary
// operator evaluates only the selected branch, so a missing variable in an
// operand that is not evaluated does not fail the rule.
func (*Evaluator) Eval(ctx context.Context, r *impacts.Rule, env impacts.Environment, opts impacts.EvalOptions) (impacts.Value, *impacts.Diagnostics, error) {
	ev := &evaluation{
		ctx:    ctx,
		env:    env,
		diag:   opts.ReturnDiagnostics,
		active: map[string]bool{},
	}
	return ev.rule(r)
}

type evaluation struct {
	ctx  context.Context
	env  impacts.Environment
	diag bool

	// Rules being evaluated, innermost last.
	active map[string]bool
	chain  []string
}

func (ev *evaluation) rule(r *impacts.Rule) (impacts.Value, *impacts.Diagnostics, error) {
	prog, ok := r.Program.(*Program)
	if !ok || prog == nil {
		return impacts.Value{}, nil, fmt.Errorf("%w: %s", impacts.ErrNotCompiled, r.ID)
	}
	ev.active[r.ID] = true
	ev.chain = append(ev.chain, r.ID)
	defer func() {
		delete(ev.active, r.ID)
		ev.chain = ev.chain[:len(ev.chain)-1]
	}()

	v, d, err := ev.eval(prog.Root)
	if err != nil {
		return impacts.Value{}, nil, fmt.Errorf("evaluating %s: %w", r.ID, err)
	}
	return v, d, nil
}

func (ev *evaluation) eval(n Node) (impacts.Value, *impacts.Diagnostics, error) {
	switch x := n.(type) {
	case *Literal:
		v := impacts.NumberValue(x.Value)
		return v, ev.record(n, v, impacts.Evaluated), nil

	case *VariableRef:
		v, ok := ev.env.Variable(x.Name)
		if !ok {
			return impacts.Value{}, nil, fmt.Errorf("%w: %s", impacts.ErrUnresolvedVariable, x.Name)
		}
		return v, ev.record(n, v, impacts.Input), nil

	case *RegionRef:
		v, ok := ev.env.Variable(impacts.RegionSymbol)
		if !ok {
			return impacts.Value{}, nil, fmt.Errorf("%w: %s", impacts.ErrUnresolvedVariable, impacts.RegionSymbol)
		}
		return v, ev.record(n, v, impacts.Input), nil

	case *RuleRef:
		return ev.ruleRef(x)

	case *UnaryNot:
		v, d, err := ev.eval(x.Operand)
		if err != nil {
			return impacts.Value{}, nil, err
		}
		b, err := truthy(v, "operand of !")
		if err != nil {
			return impacts.Value{}, nil, err
		}
		res := impacts.BoolValue(!b)
		return res, ev.record(n, res, impacts.Evaluated, d), nil

	case *Ternary:
		c, cd, err := ev.eval(x.Cond)
		if err != nil {
			return impacts.Value{}, nil, err
		}
		b, err := truthy(c, "condition of ?:")
		if err != nil {
			return impacts.Value{}, nil, err
		}
		branch := x.Else
		if b {
			branch = x.Then
		}
		v, bd, err := ev.eval(branch)
		if err != nil {
			return impacts.Value{}, nil, err
		}
		return v, ev.record(n, v, impacts.Evaluated, cd, bd), nil

	case *BinaryOp:
		if x.Op == OpAnd || x.Op == OpOr {
			return ev.logical(x)
		}
		l, ld, err := ev.eval(x.Left)
		if err != nil {
			return impacts.Value{}, nil, err
		}
		r, rd, err := ev.eval(x.Right)
		if err != nil {
			return impacts.Value{}, nil, err
		}
		var v impacts.Value
		switch x.Op {
		case OpAdd, OpSub, OpMul, OpDiv:
			v, err = arithmetic(x.Op, l, r)
		default:
			v, err = compare(x.Op, l, r)
		}
		if err != nil {
			return impacts.Value{}, nil, err
		}
		return v, ev.record(n, v, impacts.Evaluated, ld, rd), nil
	}
	return impacts.Value{}, nil, fmt.Errorf("%w: %T", impacts.ErrUnknownNode, n)
}

// logical evaluates && and ||, skipping the right operand when the left one
// decides the result.
func (ev *evaluation) logical(x *BinaryOp) (impacts.Value, *impacts.Diagnostics, error) {
	l, ld, err := ev.eval(x.Left)
	if err != nil {
		return impacts.Value{}, nil, err
	}
	lb, err := truthy(l, "left operand of "+x.Op.String())
	if err != nil {
		return impacts.Value{}, nil, err
	}
	if (x.Op == OpAnd && !lb) || (x.Op == OpOr && lb) {
		v := impacts.BoolValue(lb)
		return v, ev.record(x, v, impacts.Evaluated, ld), nil
	}

	r, rd, err := ev.eval(x.Right)
	if err != nil {
		return impacts.Value{}, nil, err
	}
	rb, err := truthy(r, "right operand of "+x.Op.String())
	if err != nil {
		return impacts.Value{}, nil, err
	}
	v := impacts.BoolValue(rb)
	return v, ev.record(x, v, impacts.Evaluated, ld, rd), nil
}

func (ev *evaluation) ruleRef(x *RuleRef) (impacts.Value, *impacts.Diagnostics, error) {
	if err := ev.ctx.Err(); err != nil {
		return impacts.Value{}, nil, err
	}
	if ev.active[x.Name] {
		return impacts.Value{}, nil, fmt.Errorf("%w: %s -> %s", impacts.ErrCyclicReference, strings.Join(ev.chain, " -> "), x.Name)
	}
	r, ok := ev.env.Rule(x.Name)
	if !ok {
		return impacts.Value{}, nil, fmt.Errorf("%w: %s", impacts.ErrUnresolvedRule, x.Name)
	}
	v, d, err := ev.rule(r)
	if err != nil {
		return impacts.Value{}, nil, err
	}
	return v, ev.record(x, v, impacts.Reference, d), nil
}

// record returns the diagnostics of node n, or nil if diagnostics are off.
func (ev *evaluation) record(n Node, v impacts.Value, src impacts.ValueSource, children ...*impacts.Diagnostics) *impacts.Diagnostics {
	if !ev.diag {
		return nil
	}
	d := &impacts.Diagnostics{
		Expr:   n.String(),
		Value:  v,
		Source: src,
		Offset: n.Position(),
	}
	for _, c := range children {
		if c != nil {
			d.Children = append(d.Children, *c)
		}
	}
	return d
}
