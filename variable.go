package impacts

import (
	"fmt"
	"strings"
)

const (
	// RulePrefix marks an identifier as a reference to another rule.
	RulePrefix = "rule_"

	// RegionSymbol is the reserved identifier for the coastal region predicate.
	// Its value is injected by the Engine from RunContext.Area.
	RegionSymbol = "region_oncoast"

	variableFields = 5
)

// Variable describes a climate variable referenced by a rule.
// The name is made of five underscore-separated components, for example
//
//	temp_djf_iamean_s0p_hist
//	 |    |    |     |   |
//	 |    |    |     |   percentile (hist, e25p, e75p)
//	 |    |    |     spatial statistic (s0p, s100p, smean)
//	 |    |    temporal statistic (iamean, iastddev)
//	 |    time of year (ann, djf, jan, ...)
//	 variable (temp, prec, nffd, ...)
type Variable struct {
	Name       string `json:"name"`
	Variable   string `json:"variable"`
	TimeOfYear string `json:"time_of_year"`
	Temporal   string `json:"temporal"`
	Spatial    string `json:"spatial"`
	Percentile string `json:"percentile"`
}

// ParseVariable decomposes a variable identifier into its five components.
func ParseVariable(name string) (Variable, error) {
	parts := strings.Split(name, "_")
	if len(parts) != variableFields {
		return Variable{}, fmt.Errorf("variable %q: want %d components separated by '_', got %d", name, variableFields, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return Variable{}, fmt.Errorf("variable %q: component %d is empty", name, i+1)
		}
	}
	return Variable{
		Name:       name,
		Variable:   parts[0],
		TimeOfYear: parts[1],
		Temporal:   parts[2],
		Spatial:    parts[3],
		Percentile: parts[4],
	}, nil
}

// String rejoins the components into the identifier used in rule expressions.
func (v Variable) String() string {
	return strings.Join([]string{v.Variable, v.TimeOfYear, v.Temporal, v.Spatial, v.Percentile}, "_")
}

// IsRuleName reports whether id names a rule, i.e. starts with RulePrefix
// followed by at least one character.
func IsRuleName(id string) bool {
	return strings.HasPrefix(id, RulePrefix) && len(id) > len(RulePrefix)
}
