package impacts_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	impacts "github.com/pacificclimate/p2a-rule-engine"
	"github.com/pacificclimate/p2a-rule-engine/expr"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// largeRuleSet returns n rules over 20 variables. Every rule not divisible
// by 10 also references the previous rule.
func largeRuleSet(n int) map[string]string {
	rules := make(map[string]string, n)
	for i := 0; i < n; i++ {
		cond := fmt.Sprintf("prec_ann_iamean_smean_p%d > %d", i%20, i%7)
		if i%10 != 0 {
			cond = fmt.Sprintf("rule_%d || %s", i-1, cond)
		}
		rules[fmt.Sprintf("rule_%d", i)] = cond
	}
	return rules
}

// lengthResolver resolves every variable to the length of its name.
var lengthResolver = impacts.ResolverFunc(func(_ context.Context, v impacts.Variable, _ impacts.RunContext) (impacts.Value, error) {
	return impacts.IntValue(int64(len(v.Name))), nil
})

// Test for race conditions when multiple goroutines resolve with the same engine
func TestParallelRaceConditions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(8))
	rules := largeRuleSet(500)

	const numGoroutines = 20
	const numIterations = 10

	var wg sync.WaitGroup
	var failures int64

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				res, err := engine.Resolve(context.Background(), rules, lengthResolver, impacts.RunContext{DateRange: "2050"})
				if err != nil {
					atomic.AddInt64(&failures, 1)
					t.Errorf("worker %d iteration %d failed: %v", workerID, j, err)
					continue
				}
				if res.Resolved() != 500 {
					atomic.AddInt64(&failures, 1)
					t.Errorf("worker %d iteration %d: %s", workerID, j, res.Summary())
				}
			}
		}(i)
	}
	wg.Wait()

	if failures > 0 {
		t.Errorf("detected %d failures during concurrent resolution", failures)
	}
}

// Test for goroutine leaks when the context is cancelled mid-run
func TestParallelGoroutineLeaksWithCancellation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(5))
	rules := largeRuleSet(200)
	slow := impacts.ResolverFunc(func(ctx context.Context, v impacts.Variable, rc impacts.RunContext) (impacts.Value, error) {
		select {
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return impacts.Value{}, ctx.Err()
		}
		return lengthResolver(ctx, v, rc)
	})

	initialGoroutines := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
		_, err := engine.Resolve(ctx, rules, slow, impacts.RunContext{})
		cancel()

		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("unexpected error (not cancellation): %v", err)
		}
	}

	time.Sleep(100 * time.Millisecond)
	runtime.GC()

	finalGoroutines := runtime.NumGoroutine()
	if finalGoroutines > initialGoroutines+5 {
		t.Errorf("potential goroutine leak: started with %d, ended with %d",
			initialGoroutines, finalGoroutines)
	}
}

// Test for goroutine leaks when every rule fails
func TestParallelGoroutineLeaksWithErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(10))
	rules := map[string]string{}
	for i := 0; i < 100; i++ {
		rules[fmt.Sprintf("rule_%d", i)] = fmt.Sprintf("dg05_ann_iamean_smean_e25p / %d - %d / 0", i+1, i)
	}

	initialGoroutines := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		res, err := engine.Resolve(context.Background(), rules, lengthResolver, impacts.RunContext{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Resolved() != 0 {
			t.Fatalf("expected every rule to fail, got %s", res.Summary())
		}
		for id, err := range res.Skipped {
			if !errors.Is(err, impacts.ErrDivisionByZero) {
				t.Fatalf("%s: expected division by zero, got %v", id, err)
			}
		}
	}

	time.Sleep(100 * time.Millisecond)
	runtime.GC()

	finalGoroutines := runtime.NumGoroutine()
	if finalGoroutines > initialGoroutines+5 {
		t.Errorf("potential goroutine leak: started with %d, ended with %d",
			initialGoroutines, finalGoroutines)
	}
}

// Test edge cases of the parallel settings
func TestParallelEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("empty rule set", func(t *testing.T) {
		engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(4))
		res, err := engine.Resolve(ctx, map[string]string{}, lengthResolver, impacts.RunContext{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Summary() != "0/0 rules resolved" {
			t.Errorf("unexpected summary %q", res.Summary())
		}
	})

	t.Run("more workers than variables", func(t *testing.T) {
		engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(1000))
		res, err := engine.Resolve(ctx, largeRuleSet(10), lengthResolver, impacts.RunContext{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Resolved() != 10 {
			t.Errorf("unexpected summary %q", res.Summary())
		}
	})

	t.Run("negative parallelism is sequential", func(t *testing.T) {
		engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(-3))
		res, err := engine.Resolve(ctx, largeRuleSet(10), lengthResolver, impacts.RunContext{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Resolved() != 10 {
			t.Errorf("unexpected summary %q", res.Summary())
		}
	})
}

// Test that a run cancelled right away never reports results
func TestParallelRapidCancellation(t *testing.T) {
	engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(quiet), impacts.EnableParallel(10))
	rules := largeRuleSet(100)

	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := engine.Resolve(ctx, rules, lengthResolver, impacts.RunContext{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("iteration %d: expected context.Canceled, got %v", i, err)
		}
		if res != nil {
			t.Fatalf("iteration %d: expected no results", i)
		}
	}
}
