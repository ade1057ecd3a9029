package impacts

import "time"

// Metrics receives counters from the Engine. The metrics package provides
// a Prometheus implementation.
type Metrics interface {
	// RuleRejected is called for every rule left out of a run.
	// stage is "compile" or "evaluate".
	RuleRejected(stage string)

	// VariableCollected is called once per distinct variable requested from
	// the resolver.
	VariableCollected(ok bool, d time.Duration)

	// RunCompleted is called at the end of every resolution run.
	RunCompleted(resolved, attempted int, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RuleRejected(string)                   {}
func (noopMetrics) VariableCollected(bool, time.Duration) {}
func (noopMetrics) RunCompleted(int, int, time.Duration)  {}
