package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/pacificclimate/p2a-rule-engine/climate"
	"github.com/pacificclimate/p2a-rule-engine/climate/statsdb"
)

const rulesCSV = `id;condition
cold;temp_djf_iamean_s0p_hist <= -6
snow;rule_cold && prec_djf_iamean_s0p_e75p > 0
coast;region_oncoast ? 1 : 0
bad;rule_1a and rule_1b
`

const valuesJSON = `{
	"temp_djf_iamean_s0p_hist": -10,
	"prec_djf_iamean_s0p_e75p": 2.5,
	"region_oncoast": true
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// run executes the command line and returns its standard output and
// error streams.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestResolveWithValues(t *testing.T) {
	is := is.New(t)
	rules := writeFile(t, "rules.csv", rulesCSV)
	values := writeFile(t, "values.json", valuesJSON)

	stdout, stderr, err := run(t, "resolve", "--csv", rules, "--values", values, "--log-format", "json")
	is.NoErr(err)

	var got map[string]any
	is.NoErr(json.Unmarshal([]byte(stdout), &got))
	is.Equal(got, map[string]any{
		"rule_cold":  true,
		"rule_snow":  true,
		"rule_coast": 1.0,
	})
	is.True(strings.Contains(stderr, "rule will be excluded"))
	is.True(strings.Contains(stderr, "3/4 rules resolved"))

	stdout, _, err = run(t, "resolve", "--csv", rules, "--values", values, "--format", "table", "--log-level", "ERROR")
	is.NoErr(err)
	is.True(strings.Contains(stdout, "RESULT SUMMARY"))
	is.True(strings.Contains(stdout, "rule_snow"))
}

func TestResolveWithDatabase(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	const wkt = "POLYGON((-122.7 49.3,-122.6 49.3,-122.6 49.4,-122.7 49.3))"

	geoserver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "FID,the_geom,english_na,coast_bool\nbc.1,%q,Greater Vancouver,1\n", wkt)
	}))
	defer geoserver.Close()

	dsn := filepath.Join(t.TempDir(), "stats.db")
	store, err := statsdb.Open(ctx, dsn)
	is.NoErr(err)
	for model, mean := range map[string]float64{"m1": 1, "m2": 5} {
		is.NoErr(store.Put(ctx, statsdb.Record{
			StatsQuery: climate.StatsQuery{
				Ensemble:   "p2a_rules",
				Model:      model,
				Emission:   "historical,rcp85",
				Variable:   "pr",
				Timescale:  "yearly",
				CellMethod: "mean",
				Area:       wkt,
			},
			FileID: "pr_" + model + "_20700101-20991231",
			Stats:  climate.Stats{"mean": mean},
		}))
	}
	is.NoErr(store.Close())

	rules := writeFile(t, "rules.csv", "id;condition\nwet;prec_ann_iamean_smean_e25p >= 2\ncoast;region_oncoast\n")
	stdout, _, err := run(t, "resolve", "--csv", rules,
		"--region", "greater_vancouver", "--url", geoserver.URL, "--dsn", dsn, "--parallel", "2")
	is.NoErr(err)
	is.Equal(strings.TrimSpace(stdout), `{"rule_coast":true,"rule_wet":true}`)
}

func TestResolveErrors(t *testing.T) {
	is := is.New(t)
	rules := writeFile(t, "rules.csv", rulesCSV)
	values := writeFile(t, "values.json", valuesJSON)

	_, _, err := run(t, "resolve", "--values", values)
	is.True(err != nil) // --csv is required

	_, _, err = run(t, "resolve", "--csv", rules, "--values", values, "--date-range", "2100")
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "run.date_range"))

	_, _, err = run(t, "resolve", "--csv", rules, "--values", values, "--region", "atlantis")
	is.True(err != nil)

	_, _, err = run(t, "resolve", "--csv", rules, "--values", values, "--format", "xml")
	is.True(err != nil)
}

func TestCheck(t *testing.T) {
	is := is.New(t)
	rules := writeFile(t, "rules.csv", rulesCSV)

	stdout, _, err := run(t, "check", "--csv", rules)
	is.NoErr(err)
	is.True(strings.Contains(stdout, "3 rules compiled, 1 rejected, 2 distinct variables"))
	is.True(strings.Contains(stdout, "rule_bad"))

	_, _, err = run(t, "check", "--csv", rules, "--strict")
	is.True(err != nil)
}

func TestExplain(t *testing.T) {
	is := is.New(t)
	rules := writeFile(t, "rules.csv", rulesCSV)
	values := writeFile(t, "values.json", valuesJSON)

	stdout, _, err := run(t, "explain", "--csv", rules, "--values", values, "--rule", "rule_snow", "-l", "error")
	is.NoErr(err)
	is.True(strings.Contains(stdout, "RULE EVALUATION DIAGNOSTIC REPORT"))
	is.True(strings.Contains(stdout, "rule_snow = true"))

	_, _, err = run(t, "explain", "--csv", rules, "--values", values, "--rule", "rule_bad", "-l", "error")
	is.True(err != nil)

	_, _, err = run(t, "explain", "--csv", rules, "--values", values, "--rule", "rule_missing")
	is.True(err != nil)
}

func TestVersion(t *testing.T) {
	is := is.New(t)
	stdout, _, err := run(t, "version")
	is.NoErr(err)
	is.True(strings.HasPrefix(stdout, "p2a-impacts "+Version))
}
