package impacts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// A Rule is a named expression in the rule language, for example
//
//	rule_snow: (temp_djf_iamean_s0p_hist <= -6) && (prec_djf_iamean_s0p_e75p > 0)
//
// Rules are compiled by an Evaluator, which stores its compiled form in
// Program and fills in the variables the expression refers to. A rule may
// refer to other rules by name; those references are looked up in the
// Environment when the rule is evaluated.
type Rule struct {
	// A rule identifier, always prefixed with "rule_". (required)
	ID string `json:"id"`

	// The expression to evaluate.
	Expr string `json:"expr"`

	// Reference to intermediate compilation / evaluation data.
	// Set by the Evaluator's Compile.
	Program any `json:"-"`

	// Distinct climate variables referenced by the expression, keyed by name.
	// Set by the Evaluator's Compile.
	Variables map[string]Variable `json:"variables,omitempty"`

	// RegionSymbol if the expression uses the region predicate, otherwise empty.
	// Set by the Evaluator's Compile.
	Region string `json:"region,omitempty"`

	// A reference to any object.
	// Not used by the rules engine.
	Meta any `json:"-"`
}

// NewRule initializes a rule with the ID and rule expression.
func NewRule(id, expr string) *Rule {
	return &Rule{
		ID:   id,
		Expr: expr,
	}
}

// VariableNames returns the names of the variables the rule refers to, sorted.
func (r *Rule) VariableNames() []string {
	return sortedKeys(r.Variables)
}

// String returns the rule as a one-row table.
func (r *Rule) String() string {
	rs := &RuleSet{Rules: map[string]*Rule{r.ID: r}}
	return rs.String()
}

// RuleSet is the Rule Table of one resolution run: the rules that compiled,
// the union of the variables they reference, and the rules that were
// rejected with the reason. A RuleSet is read-only once the Engine returns it.
type RuleSet struct {
	Rules     map[string]*Rule
	Variables map[string]Variable

	// RegionSymbol if any rule uses the region predicate, otherwise empty.
	Region string

	// Rules that failed to compile, with the cause.
	Rejected map[string]error
}

// Rule returns the compiled rule with the id.
func (rs *RuleSet) Rule(id string) (*Rule, bool) {
	if rs == nil {
		return nil, false
	}
	r, ok := rs.Rules[id]
	return r, ok
}

// Attempted is the number of rules supplied to Compile, including rejected ones.
func (rs *RuleSet) Attempted() int {
	return len(rs.Rules) + len(rs.Rejected)
}

// IDs returns the ids of the compiled rules, sorted.
func (rs *RuleSet) IDs() []string {
	return sortedKeys(rs.Rules)
}

// String lists the compiled rules with their variables, followed by any
// rejected rules.
func (rs *RuleSet) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nRULES\n")
	tw.AppendHeader(table.Row{"\nRule", "\nExpression", "\nVariables", "Region"})

	maxWidthOfExpressionColumn := 50
	maxExprLength := 0
	for _, id := range rs.IDs() {
		r := rs.Rules[id]
		region := ""
		if r.Region != "" {
			region = "yes"
		}
		tw.AppendRow(table.Row{r.ID, r.Expr, strings.Join(r.VariableNames(), "\n"), region})
		maxExprLength = max(maxExprLength, len(r.Expr))
	}
	for _, id := range sortedKeys(rs.Rejected) {
		tw.AppendRow(table.Row{id, fmt.Sprintf("REJECTED: %v", rs.Rejected[id]), "", ""})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1},
		{Number: 2, WidthMax: maxWidthOfExpressionColumn},
		{Number: 3},
		{Number: 4},
	})

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	// Only add the row separator if the expression is wide enough to wrap.
	if maxExprLength > maxWidthOfExpressionColumn {
		style.Options.SeparateRows = true
	}
	tw.SetStyle(style)
	return tw.Render()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
