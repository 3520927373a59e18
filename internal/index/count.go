package index

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// defaultCountTemplates are the metadata format strings for
// threshold-comparison counting indices. The per-input fragments
// (inputs_*) are joined across variables by the scope builder.
var defaultCountTemplates = Templates{
	Identifier:   "{src_freq_units}_when{inputs_identifier}",
	Units:        "{src_freq_units}",
	StandardName: "number_of_{src_freq_units}_when{inputs_standard_name}",
	LongName:     "Number of {src_freq_units} when{inputs_long_name}.",
	Description:  "Number of {src_freq_units} when {output_freq}{inputs_description}.",
	CellMethods:  "time: sum over {src_freq_units}",
}

// DefaultThresholdSpec lets a preset index supply a threshold for variables
// that arrive without one, e.g. SU's fixed 25 degC or TX90p's 90th
// day-of-year percentile. Percentile defaults are instantiated against the
// call's reference period.
type DefaultThresholdSpec struct {
	Kind       ThresholdKind
	Value      float64
	Unit       string
	Percentile float64
	Bootstrap  bool
}

// CountEventComparedToThreshold counts, per resampling period, the timesteps
// on which every input variable satisfies its comparison against its
// threshold. The generic index behind the greater/lower/equal catalog family
// and the count-style ECA&D presets.
type CountEventComparedToThreshold struct {
	ResamplingIndicator
	operator         Operator
	resolver         *Resolver
	defaultThreshold *DefaultThresholdSpec
}

// CountOption tunes construction.
type CountOption func(*CountEventComparedToThreshold)

// WithResolver shares a threshold resolver (and its percentile cache) across
// indicators.
func WithResolver(r *Resolver) CountOption {
	return func(c *CountEventComparedToThreshold) { c.resolver = r }
}

// WithDefaultThreshold attaches a preset threshold specification.
func WithDefaultThreshold(spec DefaultThresholdSpec) CountOption {
	return func(c *CountEventComparedToThreshold) { c.defaultThreshold = &spec }
}

// NewCountEventComparedToThreshold builds the indicator. The missing policy is
// validated here; a broken policy never reaches computation.
func NewCountEventComparedToThreshold(shortName string, op Operator, missing MissingPolicy, opts ...CountOption) (*CountEventComparedToThreshold, error) {
	if op == OpUnset {
		return nil, fmt.Errorf("%w: indicator %q needs a comparison operator", ErrConfiguration, shortName)
	}
	validated, err := missing.validated()
	if err != nil {
		return nil, err
	}
	missing = validated
	c := &CountEventComparedToThreshold{
		ResamplingIndicator: newResamplingIndicator(shortName, defaultCountTemplates, missing),
		operator:            op,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = NewResolver(0)
	}
	return c, nil
}

// Operator returns the indicator-level comparison operator.
func (c *CountEventComparedToThreshold) Operator() Operator { return c.operator }

// WithMissingPolicy returns a variant of the indicator using the given policy,
// sharing the resolver and any preset threshold. The receiver stays untouched;
// catalog entries keep their defaults.
func (c *CountEventComparedToThreshold) WithMissingPolicy(missing MissingPolicy) (*CountEventComparedToThreshold, error) {
	opts := []CountOption{WithResolver(c.resolver)}
	if c.defaultThreshold != nil {
		opts = append(opts, WithDefaultThreshold(*c.defaultThreshold))
	}
	return NewCountEventComparedToThreshold(c.shortName, c.operator, missing, opts...)
}

// Compute evaluates the index: preprocess (validation, rendering, clipping),
// per-variable comparison with pre-aggregation AND combination, resampling,
// masking and metadata stamping.
func (c *CountEventComparedToThreshold) Compute(cfg *Config) (*Result, error) {
	if len(cfg.Variables) == 0 {
		return nil, fmt.Errorf("%w: no input variables, nothing to compute", ErrConfiguration)
	}
	thresholds, err := c.resolveThresholdSpecs(cfg)
	if err != nil {
		return nil, err
	}

	srcSampling := cfg.Variables[0].Sampling
	if srcSampling == series.SamplingUnknown {
		srcSampling = series.SamplingDaily
	}
	scope := c.buildScope(cfg, thresholds, srcSampling)

	clipped, md, err := c.preprocess(cfg, scope)
	if err != nil {
		return nil, err
	}

	result := &Result{Percentiles: map[string]*series.DOYField{}}

	// Compare every variable against its threshold, then AND the boolean
	// matrices before any resampling: the joint condition is per-day, and
	// intersecting post-resample counts would be wrong.
	var combined *series.Series
	for i, cv := range cfg.Variables {
		study := clipped[i]
		boolSeries, diag, err := c.compareVariable(cv, thresholds[i], study, result)
		if err != nil {
			return nil, fmt.Errorf("compare %q: %w", cv.Name, err)
		}
		result.Diagnostics.BootstrapPasses += diag

		if combined == nil {
			combined = boolSeries
			continue
		}
		combined, err = andCombine(combined, boolSeries)
		if err != nil {
			return nil, err
		}
	}

	aggregated, err := c.aggregate(combined, cfg, srcSampling)
	if err != nil {
		return nil, err
	}
	aggregated.Name = c.shortName
	result.Series = aggregated
	if !cfg.SavePercentiles {
		result.Percentiles = nil
	}

	inputs := make([]inputForMask, len(clipped))
	for i, s := range clipped {
		inputs[i] = inputForMask{study: s, sampling: cfg.Variables[i].Sampling, indexer: cfg.Frequency.Indexer()}
		if inputs[i].sampling == series.SamplingUnknown {
			inputs[i].sampling = series.SamplingDaily
		}
	}
	c.postprocess(result, inputs, cfg.Frequency, md)
	return result, nil
}

// resolveThresholdSpecs returns one threshold per variable, instantiating the
// preset default for variables that arrived without one. The caller's
// ClimateVariables stay untouched. A variable without a threshold on a
// preset-less indicator is a configuration error.
func (c *CountEventComparedToThreshold) resolveThresholdSpecs(cfg *Config) ([]*Threshold, error) {
	thresholds := make([]*Threshold, len(cfg.Variables))
	for i, cv := range cfg.Variables {
		if cv.Threshold != nil {
			thresholds[i] = cv.Threshold
			continue
		}
		if c.defaultThreshold == nil {
			return nil, fmt.Errorf("%w: variable %q has no threshold", ErrConfiguration, cv.Name)
		}
		spec := c.defaultThreshold
		switch spec.Kind {
		case ThresholdScalar:
			thresholds[i] = NewScalarThreshold(spec.Value, spec.Unit, c.operator)
		case ThresholdPercentile:
			th, err := NewPercentileThreshold(spec.Percentile, cv.Study, cfg.RefStart, cfg.RefEnd, c.operator,
				PercentileOptions{Bootstrap: spec.Bootstrap})
			if err != nil {
				return nil, err
			}
			thresholds[i] = th
		default:
			return nil, fmt.Errorf("%w: preset threshold kind %d not supported", ErrConfiguration, spec.Kind)
		}
	}
	return thresholds, nil
}

// effectiveOperator prefers a per-threshold operator over the indicator's.
func (c *CountEventComparedToThreshold) effectiveOperator(th *Threshold) Operator {
	if th.Operator != OpUnset {
		return th.Operator
	}
	return c.operator
}

// compareVariable produces the boolean series (1 satisfied, 0 not, NaN where
// the study sample is missing) for one variable, running the bootstrap
// procedure when the threshold is percentile-based and eligible. Returns the
// number of leave-one-out passes performed.
func (c *CountEventComparedToThreshold) compareVariable(cv *ClimateVariable, th *Threshold, study *series.Series, result *Result) (*series.Series, int, error) {
	op := c.effectiveOperator(th)

	resolved, err := c.resolver.Resolve(th, study)
	if err != nil {
		return nil, 0, err
	}
	if result.Percentiles != nil && resolved.DOYField() != nil {
		result.Percentiles[cv.Name] = resolved.DOYField()
	}

	// Leave-one-out fields for the years where a study point would otherwise
	// influence its own percentile.
	bootstrapYears := th.BootstrapYears(study)
	excluded := make(map[int]*series.DOYField, len(bootstrapYears))
	for _, y := range bootstrapYears {
		field, err := c.resolver.resolvePercentile(th, study, y)
		if err != nil {
			return nil, 0, fmt.Errorf("bootstrap year %d: %w", y, err)
		}
		excluded[y] = field
	}

	out := &series.Series{Name: cv.Name, Unit: "1", Times: study.Times}
	out.Data = make([][]float64, study.Len())
	for i, t := range study.Times {
		row := make([]float64, study.Points())
		field := excluded[t.Year()]
		for p, v := range study.Data[i] {
			if series.IsMissing(v) {
				row[p] = series.Missing()
				continue
			}
			var threshold float64
			if field != nil {
				threshold = field.At(series.DayOfYear(t), p)
			} else {
				threshold = resolved.At(t, p)
			}
			if series.IsMissing(threshold) {
				row[p] = series.Missing()
				continue
			}
			if op.Apply(v, threshold) {
				row[p] = 1
			}
		}
		out.Data[i] = row
	}
	return out, len(bootstrapYears), nil
}

// andCombine joins two boolean series with logical AND per timestep and grid
// point. Missingness wins over truth: if either operand is missing the joint
// condition is missing. The inputs must share one time axis.
func andCombine(a, b *series.Series) (*series.Series, error) {
	if a.Len() != b.Len() || a.Points() != b.Points() {
		return nil, fmt.Errorf("%w: input series disagree on shape (%d×%d vs %d×%d); align inputs before computing",
			ErrConfiguration, a.Len(), a.Points(), b.Len(), b.Points())
	}
	for i := range a.Times {
		if !a.Times[i].Equal(b.Times[i]) {
			return nil, fmt.Errorf("%w: input series time axes differ at index %d", ErrConfiguration, i)
		}
	}
	out := &series.Series{Name: a.Name, Unit: "1", Times: a.Times}
	out.Data = make([][]float64, a.Len())
	for i := range a.Data {
		row := make([]float64, a.Points())
		for p := range a.Data[i] {
			av, bv := a.Data[i][p], b.Data[i][p]
			switch {
			case series.IsMissing(av) || series.IsMissing(bv):
				row[p] = series.Missing()
			case av == 1 && bv == 1:
				row[p] = 1
			}
		}
		out.Data[i] = row
	}
	return out, nil
}

// aggregate resamples the combined boolean series to the target frequency and
// converts the dimensionless count to its count-of-timesteps unit (or the
// percent-of-period override).
func (c *CountEventComparedToThreshold) aggregate(combined *series.Series, cfg *Config, srcSampling series.Sampling) (*series.Series, error) {
	skip := c.missing.SkipAggregation() || c.missing.Method == MissingPct
	agg := series.ResampleSum(combined, cfg.Frequency, skip)
	agg.Unit = srcSampling.CountUnits()

	if c.missing.Method == MissingPct {
		poisonOverTolerance(combined, agg, cfg.Frequency, c.missing.Tolerance)
	}

	switch out := strings.TrimSpace(cfg.OutUnit); out {
	case "", agg.Unit:
		return agg, nil
	case "%":
		totals := series.PeriodSampleCounts(combined, cfg.Frequency)
		for i, start := range agg.Times {
			total := totals[start]
			for p, v := range agg.Data[i] {
				if series.IsMissing(v) || total == 0 {
					continue
				}
				agg.Data[i][p] = 100 * v / float64(total)
			}
		}
		agg.Unit = "%"
		return agg, nil
	default:
		return nil, fmt.Errorf("%w: unsupported output unit %q (use %q or %%)", ErrConfiguration, out, agg.Unit)
	}
}

// poisonOverTolerance applies the "pct" aggregation semantics: a period whose
// missing fraction (among its actual samples) exceeds the tolerance becomes
// missing in the aggregate.
func poisonOverTolerance(combined, agg *series.Series, freq series.Frequency, tolerance float64) {
	total := series.PeriodSampleCounts(combined, freq)
	valid := series.PeriodValidCounts(combined, freq)
	for i, start := range agg.Times {
		n, v := total[start], valid[start]
		if n == 0 {
			continue
		}
		if float64(n-v)/float64(n) > tolerance {
			for p := range agg.Data[i] {
				agg.Data[i][p] = series.Missing()
			}
		}
	}
}

// buildScope assembles the per-call template scope: source-frequency units,
// output frequency description, and the joined per-input fragments.
func (c *CountEventComparedToThreshold) buildScope(cfg *Config, thresholds []*Threshold, srcSampling series.Sampling) Scope {
	var ids, stds, longs, descs []string
	for i, cv := range cfg.Variables {
		th := thresholds[i]
		op := c.effectiveOperator(th)

		ids = append(ids, fmt.Sprintf("_%s_%s_%s", cv.Name, op.StandardName(), th.StandardName()))
		stds = append(stds, fmt.Sprintf("_%s_%s_%s", cv.standardName(), op.StandardName(), th.StandardName()))

		long := fmt.Sprintf(" %s %s %s", cv.Name, op.Operand(), th.DisplayValue())
		desc := fmt.Sprintf(" %s is %s %s", cv.longName(), op.LongName(), th.DisplayValue())
		if extra := th.AdditionalMetadata(); extra != "" {
			long += fmt.Sprintf(" (%s)", extra)
			desc += fmt.Sprintf(" (%s)", extra)
		}
		longs = append(longs, long)
		descs = append(descs, desc)
	}
	return Scope{
		"src_freq_units":       srcSampling.CountUnits(),
		"output_freq":          cfg.Frequency.Description(),
		"inputs_identifier":    strings.Join(ids, "_and"),
		"inputs_standard_name": strings.Join(stds, "_and"),
		"inputs_long_name":     strings.Join(longs, " and"),
		"inputs_description":   strings.Join(descs, " and"),
	}
}
