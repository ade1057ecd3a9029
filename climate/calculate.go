package climate

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// filterByPeriod returns the target statistic from the stats of the file
// whose id contains one of the period's date strings. File ids are visited
// in sorted order.
func filterByPeriod(target string, dates []string, stats map[string]Stats) (float64, bool) {
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		for _, d := range dates {
			if !strings.Contains(id, d) {
				continue
			}
			if v, ok := stats[id][target]; ok {
				return v, true
			}
		}
	}
	return 0, false
}

// calculate combines the per-variable values of one model into the value of
// the rule variable: mean temperature from tasmin and tasmax, frost free
// days from frost days, otherwise the single value as is.
func calculate(values []float64, variables []string, time int, timescale string) (float64, error) {
	if slices.Contains(variables, "tasmin") && slices.Contains(variables, "tasmax") {
		return mean(values), nil
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("expected one value for %v, got %d", variables, len(values))
	}
	if slices.Contains(variables, "fdETCCDI") {
		return frostFreeDays(values[0], time, timescale)
	}
	return values[0], nil
}

var daysPerSeason = [...]float64{89, 92, 92, 91} // djf, mam, jja, son

var errNoMonthlyNFFD = errors.New("frost free days are not available for monthly timescale")

// frostFreeDays converts a number of frost days. Only 365 day calendars are
// supported.
func frostFreeDays(fd float64, time int, timescale string) (float64, error) {
	switch timescale {
	case "yearly":
		return 365 - fd, nil
	case "seasonal":
		if time < 0 || time >= len(daysPerSeason) {
			return 0, fmt.Errorf("no season with index %d", time)
		}
		return daysPerSeason[time] - fd, nil
	}
	return 0, errNoMonthlyNFFD
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile returns the p-th percentile of values, interpolating linearly
// between the two nearest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := slices.Clone(values)
	slices.Sort(s)

	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (rank-float64(lo))*(s[hi]-s[lo])
}
