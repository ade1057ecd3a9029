package climate

import (
	"fmt"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

// Baseline is the model holding historical observations. It is the only model
// used for the "hist" percentile, and is excluded from every other percentile.
const Baseline = "anusplin"

// Query is a variable translated into backend terms.
type Query struct {
	Variables  []string // backend variable names
	Time       int      // time step index within the timescale
	Timescale  string   // yearly, seasonal or monthly
	CellMethod string   // temporal statistic
	Spatial    string   // statistic picked from the backend stats
	Percentile float64  // percentile across models
	Emission   string
	Dates      []string // date strings identifying the period in file ids
	Area       string
	Ensemble   string
}

var backendVariables = map[string][]string{
	"temp": {"tasmin", "tasmax"},
	"prec": {"pr"},
	"dg05": {"gdd"},
	"nffd": {"fdETCCDI"},
	"pass": {"prsn"},
	"dl18": {"hdd"},
}

type timeOfYear struct {
	index     int
	timescale string
}

var timesOfYear = map[string]timeOfYear{
	"ann": {0, "yearly"},
	"djf": {0, "seasonal"},
	"mam": {1, "seasonal"},
	"jja": {2, "seasonal"},
	"son": {3, "seasonal"},
	"jan": {0, "monthly"},
	"feb": {1, "monthly"},
	"mar": {2, "monthly"},
	"apr": {3, "monthly"},
	"may": {4, "monthly"},
	"jun": {5, "monthly"},
	"jul": {6, "monthly"},
	"aug": {7, "monthly"},
	"sep": {8, "monthly"},
	"oct": {9, "monthly"},
	"nov": {10, "monthly"},
	"dec": {11, "monthly"},
}

var cellMethods = map[string]string{
	"iamean":   "mean",
	"iastddev": "standard_deviation",
}

var spatialStats = map[string]string{
	"s0p":   "min",
	"s100p": "max",
	"smean": "mean",
}

var percentiles = map[string]float64{
	"e25p": 25,
	"e75p": 75,
	"hist": 100,
}

// The frost days emission really is spelled with a space in the backend.
var emissions = map[string]string{
	"temp": "historical,rcp85",
	"prec": "historical,rcp85",
	"dg05": "historical,rcp85",
	"pass": "historical,rcp85",
	"dl18": "historical,rcp85",
	"nffd": "historical, rcp85",
}

var periodDates = map[string][]string{
	"hist": {"19710101-20001231"},
	"2020": {"20100101-20391231", "20110101-20400101", "20100101-20391230"},
	"2050": {"20400101-20691231", "20410101-20700101", "20400101-20691230"},
	"2080": {"20700101-20991231", "20710101-21000101", "20700101-20991230"},
}

// DateRanges lists the supported future periods.
var DateRanges = []string{"2020", "2050", "2080"}

// Translate maps a variable and run context to backend query parameters.
// Historical variables ignore the run's date range and have no emission
// scenario.
func Translate(v impacts.Variable, rc impacts.RunContext) (Query, error) {
	q := Query{
		Ensemble: rc.Ensemble,
		Area:     rc.Area.WKT,
	}
	if q.Area == "" {
		q.Area = rc.Area.Name
	}

	var ok bool
	if q.Variables, ok = backendVariables[v.Variable]; !ok {
		return q, unknown(v, "variable", v.Variable)
	}
	toy, ok := timesOfYear[v.TimeOfYear]
	if !ok {
		return q, unknown(v, "time of year", v.TimeOfYear)
	}
	q.Time, q.Timescale = toy.index, toy.timescale
	if q.CellMethod, ok = cellMethods[v.Temporal]; !ok {
		return q, unknown(v, "temporal statistic", v.Temporal)
	}
	if q.Spatial, ok = spatialStats[v.Spatial]; !ok {
		return q, unknown(v, "spatial statistic", v.Spatial)
	}
	if q.Percentile, ok = percentiles[v.Percentile]; !ok {
		return q, unknown(v, "percentile", v.Percentile)
	}

	period := rc.DateRange
	if v.Percentile == "hist" {
		period = "hist"
	} else {
		q.Emission = emissions[v.Variable]
	}
	if q.Dates, ok = periodDates[period]; !ok {
		return q, fmt.Errorf("%s: unknown date range %q", v.Name, rc.DateRange)
	}
	return q, nil
}

func unknown(v impacts.Variable, what, value string) error {
	return fmt.Errorf("%s: unknown %s %q", v.Name, what, value)
}
