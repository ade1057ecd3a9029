// p2a-impacts resolves a set of climate impact rules for a region of
// British Columbia and a future period.
//
// Usage:
//
//	# Resolve rules against the statistics database and Geoserver regions
//	p2a-impacts resolve --csv rules.csv --region bulkley_nechako --date-range 2050
//
//	# Resolve rules against fixed variable values
//	p2a-impacts resolve --csv rules.csv --values values.json --format table
//
//	# Check that every rule compiles
//	p2a-impacts check --csv rules.csv
//
//	# Show how one rule was evaluated
//	p2a-impacts explain --csv rules.csv --values values.json --rule rule_1a
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
