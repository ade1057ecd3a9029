package impacts

// Compiler parses a rule expression. On success the compiled form is stored
// in r.Program, and r.Variables and r.Region describe what the rule needs
// from the environment. A compile error means the rule is unusable.
type Compiler interface {
	Compile(r *Rule) error
}
