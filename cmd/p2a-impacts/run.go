package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	impacts "github.com/pacificclimate/p2a-rule-engine"
	"github.com/pacificclimate/p2a-rule-engine/climate"
	"github.com/pacificclimate/p2a-rule-engine/climate/statsdb"
	"github.com/pacificclimate/p2a-rule-engine/config"
	"github.com/pacificclimate/p2a-rule-engine/expr"
	"github.com/pacificclimate/p2a-rule-engine/metrics"
	"github.com/pacificclimate/p2a-rule-engine/region"
	"github.com/pacificclimate/p2a-rule-engine/ruleset"
)

// runOptions are the flags shared by the commands that resolve rules.
type runOptions struct {
	csv       string
	dateRange string
	region    string
	url       string
	dsn       string
	ensemble  string
	values    string
	parallel  int
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.csv, "csv", "c", "", "CSV file containing rules")
	f.StringVarP(&o.dateRange, "date-range", "d", config.DefaultDateRange, "30 year period for data (2020, 2050 or 2080)")
	f.StringVarP(&o.region, "region", "r", config.DefaultRegion, "selected region")
	f.StringVarP(&o.url, "url", "u", region.DefaultURL, "Geoserver URL")
	f.StringVarP(&o.dsn, "dsn", "x", config.DefaultDSN, "statistics database")
	f.StringVarP(&o.ensemble, "ensemble", "e", config.DefaultEnsemble, "ensemble name filter for data files")
	f.StringVar(&o.values, "values", "", "JSON file of variable values, used instead of the database")
	f.IntVar(&o.parallel, "parallel", 0, "number of variables resolved at the same time")
	cobra.CheckErr(cmd.MarkFlagRequired("csv"))
}

// apply copies the flags set on the command line into cfg.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("date-range") {
		cfg.Run.DateRange = o.dateRange
	}
	if f.Changed("region") {
		cfg.Run.Region = o.region
	}
	if f.Changed("url") {
		cfg.Geoserver.URL = o.url
	}
	if f.Changed("dsn") {
		cfg.Database.DSN = o.dsn
	}
	if f.Changed("ensemble") {
		cfg.Run.Ensemble = o.ensemble
	}
	if f.Changed("parallel") {
		cfg.Engine.Parallel = o.parallel
	}
	return config.Validate(cfg)
}

// source is where the variables of a run come from.
type source struct {
	resolver impacts.VariableResolver
	rc       impacts.RunContext
	close    func() error
}

// openSource uses the values file if one is given, and otherwise looks up
// the region in Geoserver and reads variables from the statistics database.
func openSource(ctx context.Context, cfg *config.Config, values string, logger *slog.Logger) (*source, error) {
	rc := impacts.RunContext{
		DateRange: cfg.Run.DateRange,
		Ensemble:  cfg.Run.Ensemble,
	}

	if values != "" {
		static, err := ruleset.LoadValuesFile(values)
		if err != nil {
			return nil, err
		}
		rc.Area = impacts.Area{Name: region.Names[cfg.Run.Region]}
		if v, ok := static[impacts.RegionSymbol]; ok {
			rc.Area.Coastal, _ = v.Truthy()
		}
		return &source{resolver: static, rc: rc, close: func() error { return nil }}, nil
	}

	client := region.NewClient(cfg.Geoserver.URL,
		region.WithHTTPClient(&http.Client{Timeout: cfg.Geoserver.Timeout}),
		region.WithRetries(cfg.Geoserver.MaxRetries, time.Second),
		region.WithLogger(logger),
	)
	area, err := client.Lookup(ctx, cfg.Run.Region)
	if err != nil {
		return nil, fmt.Errorf("%s region was not found: %w", cfg.Run.Region, err)
	}
	rc.Area = area

	store, err := statsdb.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return &source{
		resolver: climate.NewResolver(store, climate.WithLogger(logger)),
		rc:       rc,
		close:    store.Close,
	}, nil
}

// newEngine builds the engine for cfg. The returned function stops the
// metrics endpoint, if one was started.
func newEngine(cfg *config.Config, logger *slog.Logger, diagnostics bool) (*impacts.Engine, func()) {
	opts := []impacts.EngineOption{
		impacts.WithLogger(logger),
		impacts.EnableParallel(cfg.Engine.Parallel),
		impacts.CollectDiagnostics(diagnostics || cfg.Engine.Diagnostics),
	}
	stop := func() {}

	if cfg.Metrics.Enabled {
		rec := metrics.NewRecorder(cfg.Metrics.Namespace, nil)
		opts = append(opts, impacts.WithMetrics(rec))

		if cfg.Metrics.Listen != "" {
			srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: rec.Handler()}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics endpoint failed", "error", err)
				}
			}()
			stop = func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}
		}
	}
	return impacts.NewEngine(expr.NewEvaluator(), opts...), stop
}
