package job

import (
	"fmt"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/index"
	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// parseDate parses an optional YYYY-MM-DD bound. An empty string is the zero
// time, which downstream validation treats as "not set".
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: expected YYYY-MM-DD, got %q", index.ErrConfiguration, field, s)
	}
	return t, nil
}

// buildSeries validates a variable's payload into an engine series, applying
// the optional clip and leap-day options.
func (v *Variable) buildSeries() (*series.Series, error) {
	s, err := series.New(v.Name, v.Unit, v.Times, [][]float64(v.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrConfiguration, err)
	}
	clipStart, err := parseDate("clip_start", v.ClipStart)
	if err != nil {
		return nil, err
	}
	clipEnd, err := parseDate("clip_end", v.ClipEnd)
	if err != nil {
		return nil, err
	}
	if !clipStart.IsZero() || !clipEnd.IsZero() {
		if clipStart.IsZero() || clipEnd.IsZero() {
			return nil, fmt.Errorf("%w: variable %q: clip needs both bounds", index.ErrConfiguration, v.Name)
		}
		s = s.SelectRange(clipStart, clipEnd)
		if s.IsEmpty() {
			return nil, fmt.Errorf("%w: variable %q: clip %s..%s selects no samples",
				index.ErrConfiguration, v.Name, v.ClipStart, v.ClipEnd)
		}
	}
	if v.IgnoreFeb29 {
		s = s.DropLeapDays()
	}
	return s, nil
}

// buildThreshold converts the wire threshold spec, resolving the reference
// period against the (already clipped) study series for percentile kinds.
func (t *ThresholdSpec) buildThreshold(study *series.Series) (*index.Threshold, error) {
	var op index.Operator
	if t.Operator != "" {
		parsed, err := index.ParseOperator(t.Operator)
		if err != nil {
			return nil, err
		}
		op = parsed
	}

	switch t.Kind {
	case "scalar":
		return index.NewScalarThreshold(t.Value, t.Unit, op), nil

	case "field":
		return index.NewFieldThreshold(t.Field, t.Unit, op)

	case "percentile":
		refStart, err := parseDate("ref_start", t.RefStart)
		if err != nil {
			return nil, err
		}
		refEnd, err := parseDate("ref_end", t.RefEnd)
		if err != nil {
			return nil, err
		}
		interp, err := series.ParseInterpolation(t.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", index.ErrConfiguration, err)
		}
		return index.NewPercentileThreshold(t.Percentile, study, refStart, refEnd, op, index.PercentileOptions{
			Window:        t.Window,
			Interpolation: interp,
			Bootstrap:     t.Bootstrap,
			OnlyLeapYears: t.OnlyLeapYears,
		})
	}
	return nil, fmt.Errorf("%w: unknown threshold kind %q", index.ErrConfiguration, t.Kind)
}

// BuildConfig converts a wire request into an engine configuration.
func BuildConfig(req *Request) (*index.Config, error) {
	if len(req.Variables) == 0 {
		return nil, fmt.Errorf("%w: job %q has no input variables", index.ErrConfiguration, req.JobID)
	}
	freq, err := series.LookupFrequency(req.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%w: job %q: %v", index.ErrConfiguration, req.JobID, err)
	}
	refStart, err := parseDate("ref_start", req.RefStart)
	if err != nil {
		return nil, err
	}
	refEnd, err := parseDate("ref_end", req.RefEnd)
	if err != nil {
		return nil, err
	}

	cfg := &index.Config{
		Frequency:       freq,
		OutUnit:         req.OutUnit,
		SavePercentiles: req.SavePercentiles,
		RefStart:        refStart,
		RefEnd:          refEnd,
	}
	for i := range req.Variables {
		v := &req.Variables[i]
		study, err := v.buildSeries()
		if err != nil {
			return nil, err
		}
		sampling, err := series.ParseSampling(v.Sampling)
		if err != nil {
			return nil, fmt.Errorf("%w: variable %q: %v", index.ErrConfiguration, v.Name, err)
		}
		cv := &index.ClimateVariable{
			Name:         v.Name,
			StandardName: v.StandardName,
			LongName:     v.LongName,
			Study:        study,
			Sampling:     sampling,
		}
		if v.Threshold != nil {
			th, err := v.Threshold.buildThreshold(study)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", v.Name, err)
			}
			cv.Threshold = th
		}
		cfg.Variables = append(cfg.Variables, cv)
	}
	return cfg, nil
}

// MissingPolicy converts the wire missing-value override.
func (m *MissingSpec) MissingPolicy() (index.MissingPolicy, error) {
	return index.NewMissingPolicy(m.Method, m.Tolerance)
}

// ResolveIndicator looks up the requested index in the catalog and applies
// the request's missing-policy override when one is present.
func ResolveIndicator(catalog *index.Catalog, req *Request) (index.Indicator, error) {
	indicator := catalog.Lookup(req.Index)
	if indicator == nil {
		return nil, fmt.Errorf("%w: unknown index %q", index.ErrConfiguration, req.Index)
	}

	if req.Missing == nil {
		return indicator, nil
	}

	policy, err := req.Missing.MissingPolicy()
	if err != nil {
		return nil, err
	}
	counter, ok := indicator.(*index.CountEventComparedToThreshold)
	if !ok {
		return nil, fmt.Errorf("%w: index %q does not accept a missing policy override",
			index.ErrConfiguration, req.Index)
	}
	return counter.WithMissingPolicy(policy)
}

// SuccessResult shapes an engine result for the sink topic.
func SuccessResult(req *Request, res *index.Result, at time.Time) Result {
	return Result{
		JobID:       req.JobID,
		Index:       req.Index,
		Periods:     res.Series.Times,
		Data:        Grid(res.Series.Data),
		Unit:        res.Series.Unit,
		Metadata:    res.Metadata,
		Percentiles: percentileFields(res.Percentiles),
		Diagnostics: res.Diagnostics,
		ComputedAt:  at,
	}
}

// ErrorResult shapes a compute failure for the sink topic, so producers learn
// about rejected jobs without scraping service logs.
func ErrorResult(jobID, indexName string, err error, at time.Time) Result {
	return Result{
		JobID:      jobID,
		Index:      indexName,
		Error:      err.Error(),
		ComputedAt: at,
	}
}
