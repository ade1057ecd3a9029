// Package impacts resolves climate impact rules. A rule is a named expression
// over climate variables, such as
//
//	rule_snow: (temp_djf_iamean_s0p_hist <= -6) && (prec_djf_iamean_s0p_e75p > 0)
//
// that evaluates to a number or a boolean for one region and one future period.
//
// The package defines the Engine, which orchestrates a resolution run, and the
// interfaces it relies on. It does not specify the rule language itself,
// relying instead on the Evaluator's; the expr package implements it.
//
// Typical use is as follows:
//
//  1. Load the rules, for example with the ruleset package
//  2. Create an engine with an Evaluator from the expr package
//  3. Pick a VariableResolver: the climate package for a statistics backend,
//     or a StaticResolver for fixed values
//  4. Call Engine.Resolve with the rules, the resolver and a RunContext
//  5. Inspect the Results
//
// # Resolution Runs
//
// A run compiles every rule, then asks the resolver for each distinct
// variable exactly once, then evaluates every rule. A rule that fails at any
// step is skipped and reported in Results.Skipped; the remaining rules are
// still resolved. Results.Summary reports "M/N rules resolved".
//
// Rules may refer to other rules by name (rule_a > 0 && rule_b). References
// are looked up when the referring rule is evaluated, so the order rules are
// defined in does not matter. A rule that refers to itself, directly or
// through other rules, fails with ErrCyclicReference.
//
// # Concurrency
//
// The rule set and the variable environment are built once per run and are
// read-only afterwards. With EnableParallel, variables are resolved and rules
// evaluated on several goroutines.
package impacts
