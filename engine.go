package impacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Engine resolves rule sets: it compiles every rule, collects the variables
// the rules need from a VariableResolver, and evaluates the rules.
// A rule that fails to compile or evaluate is left out of the results; it
// never stops the other rules from being resolved.
//
// An Engine holds no state between runs and is safe for concurrent use.
type Engine struct {
	// The Evaluator that will be used to compile and evaluate rules in this engine
	evaluator Evaluator

	// Options used by the engine during compilation and evaluation
	opts EngineOptions
}

// NewEngine initializes a new engine.
func NewEngine(evaluator Evaluator, opts ...EngineOption) *Engine {
	engine := Engine{
		evaluator: evaluator,
		opts: EngineOptions{
			Logger:  slog.Default(),
			Metrics: noopMetrics{},
		},
	}
	applyEngineOptions(&engine.opts, opts...)
	return &engine
}

// Resolve is the entry point of a resolution run. It returns the value of
// every rule that could be resolved, along with the reason each other rule
// was skipped.
//
// Per-rule failures are reported in the Results, not as an error. An error is
// returned only if resolver is nil or ctx is done before the run completes.
func (e *Engine) Resolve(ctx context.Context, rules map[string]string, resolver VariableResolver, rc RunContext) (*Results, error) {
	if resolver == nil {
		return nil, errors.New("resolve: nil variable resolver")
	}
	start := time.Now()
	runID := uuid.NewString()
	ctx = withRunID(ctx, runID)

	ctx, span := startSpan(ctx, "impacts.resolve",
		attribute.String("run.id", runID),
		attribute.Int("rules.count", len(rules)),
		attribute.String("run.date_range", rc.DateRange),
		attribute.String("run.region", rc.Area.Name),
	)
	var err error
	defer func() { endSpanWithError(span, err) }()

	rs := e.Compile(ctx, rules)

	env, err := e.Collect(ctx, rs, resolver, rc)
	if err != nil {
		return nil, err
	}

	res := e.Evaluate(ctx, rs, env)
	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	span.SetAttributes(attribute.Int("rules.resolved", res.Resolved()))
	e.logger(ctx).Info(res.Summary())
	e.opts.Metrics.RunCompleted(res.Resolved(), res.Attempted, time.Since(start))
	return res, nil
}

// Compile compiles every rule. Rules that fail, including rules with an
// invalid ID, are recorded in RuleSet.Rejected.
func (e *Engine) Compile(ctx context.Context, rules map[string]string) *RuleSet {
	_, span := startSpan(ctx, "impacts.compile", attribute.Int("rules.count", len(rules)))
	defer endSpanWithError(span, nil)

	log := e.logger(ctx)
	log.Info("compiling rules", "count", len(rules))

	rs := &RuleSet{
		Rules:     map[string]*Rule{},
		Variables: map[string]Variable{},
		Rejected:  map[string]error{},
	}

	for _, id := range sortedKeys(rules) {
		r := NewRule(id, rules[id])
		err := e.compileRule(r)
		if err != nil {
			log.Warn("rule will be excluded", "rule", id, "error", err)
			rs.Rejected[id] = err
			e.opts.Metrics.RuleRejected("compile")
			continue
		}
		rs.Rules[id] = r
		for name, v := range r.Variables {
			rs.Variables[name] = v
		}
		if r.Region != "" {
			rs.Region = r.Region
		}
	}
	span.SetAttributes(
		attribute.Int("rules.rejected", len(rs.Rejected)),
		attribute.Int("variables.count", len(rs.Variables)),
	)
	return rs
}

func (e *Engine) compileRule(r *Rule) error {
	if !IsRuleName(r.ID) {
		return fmt.Errorf("%q: %w: must start with %q", r.ID, ErrInvalidRuleID, RulePrefix)
	}
	if err := e.evaluator.Compile(r); err != nil {
		return fmt.Errorf("compiling %s: %w", r.ID, err)
	}
	return nil
}

// Collect asks the resolver for every variable in the rule set, once each.
// Variables the resolver fails on are left out of the environment; rules
// that need them fail when they are evaluated. If any rule uses the region
// predicate, its value is taken from rc.Area.Coastal.
//
// With EnableParallel, up to n variables are resolved at the same time.
func (e *Engine) Collect(ctx context.Context, rs *RuleSet, resolver VariableResolver, rc RunContext) (*Env, error) {
	ctx, span := startSpan(ctx, "impacts.collect", attribute.Int("variables.count", len(rs.Variables)))
	var err error
	defer func() { endSpanWithError(span, err) }()

	log := e.logger(ctx)
	log.Info("collecting variables", "count", len(rs.Variables))

	var mu sync.Mutex
	vars := make(map[string]Value, len(rs.Variables)+1)

	err = e.forEach(ctx, sortedKeys(rs.Variables), func(ctx context.Context, name string) {
		start := time.Now()
		v, rerr := resolver.Resolve(ctx, rs.Variables[name], rc)
		if rerr == nil && !v.IsValid() {
			rerr = fmt.Errorf("resolver returned %v: %w", v, ErrTypeMismatch)
		}
		e.opts.Metrics.VariableCollected(rerr == nil, time.Since(start))
		if rerr != nil {
			log.Warn("variable will be excluded", "variable", name, "error", rerr)
			return
		}
		log.Debug("variable collected", "variable", name, "value", v.String())
		mu.Lock()
		vars[name] = v
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("collecting variables: %w", err)
	}

	log.Info(fmt.Sprintf("%d/%d variables collected", len(vars), len(rs.Variables)))
	span.SetAttributes(attribute.Int("variables.collected", len(vars)))

	if rs.Region != "" {
		vars[RegionSymbol] = BoolValue(rc.Area.Coastal)
	}
	return NewEnv(rs, vars), nil
}

// Evaluate evaluates every compiled rule in the rule set against env.
// Rejected rules of the rule set are carried into Results.Skipped.
func (e *Engine) Evaluate(ctx context.Context, rs *RuleSet, env Environment) *Results {
	ctx, span := startSpan(ctx, "impacts.evaluate", attribute.Int("rules.count", len(rs.Rules)))
	defer endSpanWithError(span, nil)

	log := e.logger(ctx)
	res := &Results{
		RunID:              runIDFrom(ctx),
		Values:             map[string]Value{},
		Skipped:            map[string]error{},
		Attempted:          rs.Attempted(),
		VariablesRequested: len(rs.Variables),
	}
	for id, err := range rs.Rejected {
		res.Skipped[id] = err
	}
	if ev, ok := env.(*Env); ok {
		res.VariablesCollected = len(ev.vars)
		if rs.Region != "" {
			res.VariablesCollected--
		}
	}

	opts := NewEvalOptions(ReturnDiagnostics(e.opts.CollectDiagnostics))
	if opts.ReturnDiagnostics {
		res.Diagnostics = map[string]*Diagnostics{}
	}

	var mu sync.Mutex
	err := e.forEach(ctx, rs.IDs(), func(ctx context.Context, id string) {
		v, diag, err := e.evaluator.Eval(ctx, rs.Rules[id], env, opts)

		mu.Lock()
		defer mu.Unlock()
		if diag != nil {
			res.Diagnostics[id] = diag
		}
		if err != nil {
			log.Warn("rule will be excluded", "rule", id, "error", err)
			res.Skipped[id] = err
			e.opts.Metrics.RuleRejected("evaluate")
			return
		}
		res.Values[id] = v
	})
	if err != nil {
		// Rules not reached before cancellation have no entry at all.
		for _, id := range rs.IDs() {
			_, done := res.Values[id]
			if _, skipped := res.Skipped[id]; !done && !skipped {
				res.Skipped[id] = err
			}
		}
	}
	return res
}

// forEach calls fn for every key, sequentially or on up to
// EngineOptions.Parallel goroutines. It stops early and returns the
// context's error if ctx is done.
func (e *Engine) forEach(ctx context.Context, keys []string, fn func(context.Context, string)) error {
	if e.opts.Parallel <= 1 {
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, k)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallel)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Engine) logger(ctx context.Context) *slog.Logger {
	if id := runIDFrom(ctx); id != "" {
		return e.opts.Logger.With("run_id", id)
	}
	return e.opts.Logger
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// EngineOptions determine how the engine behaves.
type EngineOptions struct {
	// Structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Receives counters from every run. Defaults to a no-op.
	Metrics Metrics

	// Maximum number of variables resolved, or rules evaluated, at the
	// same time. 0 or 1 means sequential.
	Parallel int

	// Return a Diagnostics tree for every evaluated rule.
	CollectDiagnostics bool
}

// EngineOption is a functional option to specify engine behavior.
type EngineOption func(f *EngineOptions)

// Given an array of EngineOption functions, apply their effect
// on the EngineOptions struct.
func applyEngineOptions(o *EngineOptions, opts ...EngineOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithLogger sets the engine's logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) EngineOption {
	return func(f *EngineOptions) {
		if l != nil {
			f.Logger = l
		}
	}
}

// WithMetrics sets the recorder for run counters. A nil recorder is ignored.
func WithMetrics(m Metrics) EngineOption {
	return func(f *EngineOptions) {
		if m != nil {
			f.Metrics = m
		}
	}
}

// EnableParallel resolves variables and evaluates rules on up to n
// goroutines.
func EnableParallel(n int) EngineOption {
	return func(f *EngineOptions) {
		f.Parallel = n
	}
}

// CollectDiagnostics instructs the engine and its evaluator to save
// diagnostic information for every rule evaluated.
func CollectDiagnostics(b bool) EngineOption {
	return func(f *EngineOptions) {
		f.CollectDiagnostics = b
	}
}
