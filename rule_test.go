package impacts_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	impacts "github.com/pacificclimate/p2a-rule-engine"
	"github.com/pacificclimate/p2a-rule-engine/expr"
)

func TestNew(t *testing.T) {
	r := impacts.NewRule("rule_blah", "1 > 0")

	if r.ID != "rule_blah" {
		t.Errorf("expected ID to be 'rule_blah', got %q", r.ID)
	}
	if r.Program != nil {
		t.Error("expected a new rule to be uncompiled")
	}
	if len(r.VariableNames()) != 0 {
		t.Errorf("expected no variables, got %v", r.VariableNames())
	}
}

func TestRuleSet(t *testing.T) {
	is := is.New(t)

	e := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet))
	rs := e.Compile(context.Background(), map[string]string{
		"rule_b":  "pass_son_iamean_smean_e75p > 10 && region_oncoast",
		"rule_a":  "rule_b ? dl18_ann_iamean_smean_e25p : 0",
		"rule_c":  "(1 +",
		"nodigit": "1",
	})

	is.Equal(rs.IDs(), []string{"rule_a", "rule_b"})
	is.Equal(rs.Attempted(), 4)
	is.Equal(rs.Region, impacts.RegionSymbol)
	is.Equal(len(rs.Variables), 2)
	is.True(errors.Is(rs.Rejected["rule_c"], impacts.ErrSyntax))
	is.True(errors.Is(rs.Rejected["nodigit"], impacts.ErrInvalidRuleID))

	r, ok := rs.Rule("rule_a")
	is.True(ok)
	is.Equal(r.VariableNames(), []string{"dl18_ann_iamean_smean_e25p"})
	is.Equal(r.Region, "")

	_, ok = rs.Rule("rule_c")
	is.True(!ok)

	var none *impacts.RuleSet
	_, ok = none.Rule("rule_a")
	is.True(!ok)
}

func TestRuleSetString(t *testing.T) {
	is := is.New(t)

	e := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet))
	rs := e.Compile(context.Background(), map[string]string{
		"rule_wet": "prec_ann_iamean_smean_e25p > 1200 || region_oncoast",
		"rule_bad": "temp > 1",
	})
	s := rs.String()
	is.True(strings.Contains(s, "RULES"))
	is.True(strings.Contains(s, "rule_wet"))
	is.True(strings.Contains(s, "prec_ann_iamean_smean_e25p"))
	is.True(strings.Contains(s, "REJECTED"))

	r, _ := rs.Rule("rule_wet")
	is.True(strings.Contains(r.String(), "rule_wet"))
	is.True(!strings.Contains(r.String(), "rule_bad"))
}
