package impacts_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// countingResolver resolves variables from a map and counts how many times
// each variable was requested.
type countingResolver struct {
	mu     sync.Mutex
	values map[string]impacts.Value
	calls  map[string]int
	delay  time.Duration

	// The RunContext of the last call.
	last impacts.RunContext
}

func newCountingResolver(values map[string]impacts.Value) *countingResolver {
	return &countingResolver{
		values: values,
		calls:  map[string]int{},
	}
}

func (c *countingResolver) Resolve(ctx context.Context, v impacts.Variable, rc impacts.RunContext) (impacts.Value, error) {
	c.mu.Lock()
	c.calls[v.Name]++
	c.last = rc
	c.mu.Unlock()

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return impacts.Value{}, ctx.Err()
		}
	}

	val, ok := c.values[v.Name]
	if !ok {
		return impacts.Value{}, fmt.Errorf("%s: %w", v.Name, impacts.ErrNoData)
	}
	return val, nil
}

func (c *countingResolver) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *countingResolver) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func num(s string) impacts.Value {
	return impacts.NumberValue(decimal.RequireFromString(s))
}

// match compares the values of the results to expected values
func match(res *impacts.Results, expected map[string]impacts.Value) error {
	if len(res.Values) != len(expected) {
		return fmt.Errorf("got %d results, expected %d: %v", len(res.Values), len(expected), res.Values)
	}
	for k, want := range expected {
		got, ok := res.Values[k]
		if !ok {
			return fmt.Errorf("expected result for %s, got none (skipped: %v)", k, res.Skipped[k])
		}
		if !got.Equal(want) {
			return fmt.Errorf("for rule %s, got %v, expected %v", k, got, want)
		}
	}
	return nil
}

// recordingMetrics implements impacts.Metrics by counting calls.
type recordingMetrics struct {
	mu        sync.Mutex
	rejected  map[string]int
	collected map[bool]int
	runs      int
	resolved  int
	attempted int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		rejected:  map[string]int{},
		collected: map[bool]int{},
	}
}

func (m *recordingMetrics) RuleRejected(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[stage]++
}

func (m *recordingMetrics) VariableCollected(ok bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collected[ok]++
}

func (m *recordingMetrics) RunCompleted(resolved, attempted int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.resolved = resolved
	m.attempted = attempted
}
