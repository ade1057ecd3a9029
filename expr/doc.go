// Package expr implements the rule language and an impacts.Evaluator for it.
//
// A rule expression combines numbers, climate variables, references to other
// rules and the region predicate with these operators, from lowest to
// highest precedence:
//
//	c ? a : b        conditional
//	&&  ||           logical, short-circuit
//	>  <  >=  <=  == comparison
//	+  -             additive
//	*  /             multiplicative
//	!                logical not
//
// All binary operators are left associative; parentheses override
// precedence. Numbers are exact decimals. In arithmetic and comparisons a
// boolean counts as 1 or 0; in logical operators a number is true when it is
// not zero.
//
// Identifiers:
//
//	region_oncoast            the region predicate, true for coastal regions
//	rule_snow                 the value of another rule
//	temp_djf_iamean_s0p_hist  a climate variable; always five '_'-separated fields
package expr
