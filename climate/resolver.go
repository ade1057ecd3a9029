package climate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	impacts "github.com/pacificclimate/p2a-rule-engine"
)

var tracer = otel.Tracer("github.com/pacificclimate/p2a-rule-engine/climate")

// Stats holds the summary statistics of one data file over an area,
// keyed by statistic name ("min", "max", "mean", ...).
type Stats map[string]float64

// StatsQuery selects the data files of one model and variable.
type StatsQuery struct {
	Ensemble   string
	Model      string
	Emission   string
	Variable   string
	Timescale  string
	Time       int
	CellMethod string
	Area       string
}

// Backend is the source of climate data.
type Backend interface {
	// Models lists the models of an ensemble.
	Models(ctx context.Context, ensemble string) ([]string, error)

	// MultiStats returns the statistics of every file matching q, keyed by
	// file id. File ids contain the date range the file covers.
	MultiStats(ctx context.Context, q StatsQuery) (map[string]Stats, error)
}

// Resolver is an impacts.VariableResolver fetching variables from a Backend.
// A variable's value is the requested percentile, across models, of the
// per-model values.
type Resolver struct {
	backend Backend
	logger  *slog.Logger

	mu     sync.Mutex
	models map[string][]string // by ensemble
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used by the resolver. The default is slog.Default().
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a Resolver reading from b.
func NewResolver(b Backend, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		backend: b,
		logger:  slog.Default(),
		models:  map[string][]string{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve implements impacts.VariableResolver.
func (r *Resolver) Resolve(ctx context.Context, v impacts.Variable, rc impacts.RunContext) (val impacts.Value, err error) {
	ctx, span := tracer.Start(ctx, "climate.resolve")
	span.SetAttributes(attribute.String("variable", v.Name))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	q, err := Translate(v, rc)
	if err != nil {
		return impacts.Value{}, err
	}

	models, err := r.selectModels(ctx, q.Ensemble, v.Percentile == "hist")
	if err != nil {
		return impacts.Value{}, fmt.Errorf("%s: %w", v.Name, err)
	}

	var values []float64
	for _, model := range models {
		x, ok, err := r.modelValue(ctx, q, model)
		if err != nil {
			return impacts.Value{}, fmt.Errorf("%s: model %s: %w", v.Name, model, err)
		}
		if !ok {
			r.logger.Debug("model has no data", "variable", v.Name, "model", model)
			continue
		}
		values = append(values, x)
	}
	if len(values) == 0 {
		r.logger.Warn("unable to get data", "variable", v.Name, "area", rc.Area.Name)
		return impacts.Value{}, fmt.Errorf("%s: %w", v.Name, impacts.ErrNoData)
	}

	span.SetAttributes(attribute.Int("models", len(values)))
	return impacts.FloatValue(percentile(values, q.Percentile)), nil
}

// modelValue returns the value of the query for one model. It reports false
// when the model is missing data for any of the backend variables.
func (r *Resolver) modelValue(ctx context.Context, q Query, model string) (float64, bool, error) {
	values := make([]float64, 0, len(q.Variables))
	for _, variable := range q.Variables {
		stats, err := r.backend.MultiStats(ctx, StatsQuery{
			Ensemble:   q.Ensemble,
			Model:      model,
			Emission:   q.Emission,
			Variable:   variable,
			Timescale:  q.Timescale,
			Time:       q.Time,
			CellMethod: q.CellMethod,
			Area:       q.Area,
		})
		if err != nil {
			return 0, false, err
		}
		x, ok := filterByPeriod(q.Spatial, q.Dates, stats)
		if !ok {
			return 0, false, nil
		}
		values = append(values, x)
	}

	x, err := calculate(values, q.Variables, q.Time, q.Timescale)
	if err != nil {
		return 0, false, err
	}
	return x, true, nil
}

// selectModels returns the baseline for historical variables and every
// other model of the ensemble otherwise.
func (r *Resolver) selectModels(ctx context.Context, ensemble string, hist bool) ([]string, error) {
	if hist {
		return []string{Baseline}, nil
	}

	r.mu.Lock()
	models, ok := r.models[ensemble]
	r.mu.Unlock()
	if !ok {
		all, err := r.backend.Models(ctx, ensemble)
		if err != nil {
			return nil, fmt.Errorf("listing models of %q: %w", ensemble, err)
		}
		models = slices.DeleteFunc(slices.Clone(all), func(m string) bool { return m == Baseline })
		slices.Sort(models)

		r.mu.Lock()
		r.models[ensemble] = models
		r.mu.Unlock()
	}
	return models, nil
}
