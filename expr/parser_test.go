package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"github.com/shopspring/decimal"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestParseStructure(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"8 / 4 / 2", "(/ (/ 8 4) 2)"},
		{"1 + 2 > 2 * 1", "(> (+ 1 2) (* 2 1))"},
		{"1 < 2 == 3 > 4", "(> (== (< 1 2) 3) 4)"},
		{"1 >= 2 == 3 <= 4", "(<= (== (>= 1 2) 3) 4)"},
		{"1 == 2 >= 3", "(>= (== 1 2) 3)"},
		{"1 > 2 && 3 < 4 || 5 == 5", "(|| (&& (> 1 2) (< 3 4)) (== 5 5))"},
		{"1 || 2 && 3", "(&& (|| 1 2) 3)"},
		{"!1 > 2", "(> (! 1) 2)"},
		{"!(1 > 2)", "(! (> 1 2))"},
		{"!!1", "(! (! 1))"},
		{"1 > 2 ? 3 : 4", "(? (> 1 2) 3 4)"},
		{"1 && 2 ? 3 + 1 : 4 * 2", "(? (&& 1 2) (+ 3 1) (* 4 2))"},
		{"1 ? 2 : 3 ? 4 : 5", "(? (? 1 2 3) 4 5)"},
		{"1 ? (2 ? 3 : 4) : 5", "(? 1 (? 2 3 4) 5)"},
		{"1 ? 2 ? 3 : 4 : 5", "(? 1 (? 2 3 4) 5)"},
		{"5 -6", "(- 5 6)"},
		{"5 -6 * 2", "(- 5 (* 6 2))"},
		{"5 -6 - 1", "(- (- 5 6) 1)"},
		{"-6", "-6"},
		{"2 * -6", "(* 2 -6)"},
		{"5.01", "5.01"},
		{"temp_djf_iamean_s0p_hist <= -6", "(<= temp_djf_iamean_s0p_hist -6)"},
		{"rule_snow && region_oncoast", "(&& rule_snow region_oncoast)"},
		{"((1))", "1"},
	}

	for _, c := range cases {
		p, err := Parse(c.src)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", c.src, err)
			continue
		}
		if got := p.Root.String(); got != c.want {
			t.Errorf("Parse(%q) = %s, want %s", c.src, got, c.want)
		}
	}
}

func TestParseNodes(t *testing.T) {
	p, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatal(err)
	}
	want := &BinaryOp{
		Pos:  2,
		Op:   OpAdd,
		Left: &Literal{Pos: 0, Value: decimal.NewFromInt(1)},
		Right: &BinaryOp{
			Pos:   6,
			Op:    OpMul,
			Left:  &Literal{Pos: 4, Value: decimal.NewFromInt(2)},
			Right: &Literal{Pos: 8, Value: decimal.NewFromInt(3)},
		},
	}
	if diff := cmp.Diff(Node(want), p.Root, decimalEqual); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseVariables(t *testing.T) {
	is := is.New(t)

	p, err := Parse("(temp_djf_iamean_s0p_hist <= -6) && (prec_djf_iamean_s0p_e75p > 0) && temp_djf_iamean_s0p_hist < 0 && rule_x")
	is.NoErr(err)
	is.Equal(p.Region, "")

	want := map[string]impacts.Variable{
		"temp_djf_iamean_s0p_hist": {
			Name: "temp_djf_iamean_s0p_hist", Variable: "temp", TimeOfYear: "djf",
			Temporal: "iamean", Spatial: "s0p", Percentile: "hist",
		},
		"prec_djf_iamean_s0p_e75p": {
			Name: "prec_djf_iamean_s0p_e75p", Variable: "prec", TimeOfYear: "djf",
			Temporal: "iamean", Spatial: "s0p", Percentile: "e75p",
		},
	}
	if diff := cmp.Diff(want, p.Variables); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
	is.Equal(p.RuleRefs(), []string{"rule_x"})
}

func TestParseRegion(t *testing.T) {
	is := is.New(t)

	p, err := Parse("region_oncoast ? temp_ann_iamean_smean_e25p : 0")
	is.NoErr(err)
	is.Equal(p.Region, impacts.RegionSymbol)
	is.Equal(len(p.Variables), 1)
	_, isRegionVar := p.Variables[impacts.RegionSymbol]
	is.True(!isRegionVar)
}

func TestParseIdempotent(t *testing.T) {
	src := "rule_a && (temp_djf_iamean_s0p_hist <= -6 ? prec_jja_iamean_smean_e75p * 1.5 : 0) || !region_oncoast"
	a, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b, decimalEqual); diff != "" {
		t.Errorf("parsing twice gave different programs (-first +second):\n%s", diff)
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := []struct {
		src   string
		token string
	}{
		{"", ""},
		{"   ", ""},
		{"rule_1a and rule_1b", "and"},
		{"1 +", ""},
		{"(1 + 2", ""},
		{"1 + 2)", ")"},
		{"1 2", "2"},
		{"1 ? 2", ""},
		{"1 ? 2 : ", ""},
		{"* 3", "*"},
		{"- 3", "-"},
		{"()", ")"},
		{"1 : 2", ":"},
		{"temp_djf_iamean > 0", "temp_djf_iamean"},
		{"a_b__d_e > 0", "a_b__d_e"},
	}

	for _, c := range cases {
		p, err := Parse(c.src)
		if err == nil {
			t.Errorf("Parse(%q): expected error, got %s", c.src, p.Root)
			continue
		}
		var se *impacts.SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q): expected *impacts.SyntaxError, got %T: %v", c.src, err, err)
			continue
		}
		if se.Token != c.token {
			t.Errorf("Parse(%q): error token %q, want %q", c.src, se.Token, c.token)
		}
		if !errors.Is(err, impacts.ErrSyntax) {
			t.Errorf("Parse(%q): expected error to match ErrSyntax", c.src)
		}
	}
}

func TestParseLexErrorPassesThrough(t *testing.T) {
	is := is.New(t)
	_, err := Parse("1 # 2")
	var le *impacts.LexError
	is.True(errors.As(err, &le))
}

func TestWalk(t *testing.T) {
	is := is.New(t)

	p := MustParse("rule_a ? rule_b + 1 : !rule_a")
	var n int
	Walk(p.Root, func(Node) bool {
		n++
		return true
	})
	is.Equal(n, 7)
	is.Equal(p.RuleRefs(), []string{"rule_a", "rule_b"})
}
