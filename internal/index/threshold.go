package index

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// ThresholdKind discriminates the three value specifications a threshold can
// take.
type ThresholdKind int

const (
	ThresholdScalar ThresholdKind = iota
	ThresholdField
	ThresholdPercentile
)

// DefaultPercentileWindow is the smoothing window (in calendar days, centered)
// used for day-of-year percentile thresholds when none is configured.
const DefaultPercentileWindow = 5

// Threshold is a comparison-value specification: a fixed scalar, a
// per-grid-point field, or a percentile derived from a reference period.
// Construct through the New*Threshold functions; an invalid specification is
// a construction-time failure, never a silent default.
type Threshold struct {
	Kind     ThresholdKind
	Operator Operator // optional override of the indicator's operator
	Unit     string

	Value float64   // ThresholdScalar
	Field []float64 // ThresholdField

	// Percentile threshold parameters.
	Percentile    float64
	Window        int
	Interpolation series.Interpolation
	Reference     *series.Series // reference-period sample, already clipped
	RefStart      time.Time
	RefEnd        time.Time
	Bootstrap     bool // run the leave-one-out correction when eligible
}

// NewScalarThreshold builds a fixed scalar threshold in the given unit.
func NewScalarThreshold(value float64, unit string, op Operator) *Threshold {
	return &Threshold{Kind: ThresholdScalar, Value: value, Unit: unit, Operator: op}
}

// NewFieldThreshold builds a per-grid-point constant threshold.
func NewFieldThreshold(field []float64, unit string, op Operator) (*Threshold, error) {
	if len(field) == 0 {
		return nil, fmt.Errorf("%w: empty per-point threshold field", ErrConfiguration)
	}
	return &Threshold{Kind: ThresholdField, Field: field, Unit: unit, Operator: op}, nil
}

// PercentileOptions tunes a percentile threshold.
type PercentileOptions struct {
	Window        int // centered smoothing window in days, odd; 0 selects the default
	Interpolation series.Interpolation
	Bootstrap     bool
	OnlyLeapYears bool // reduce the reference to leap years only
}

// NewPercentileThreshold clips the reference period out of the full series and
// validates it. The reference period must have two resolvable endpoints and a
// non-empty clip, and the window must be odd.
func NewPercentileThreshold(q float64, full *series.Series, refStart, refEnd time.Time, op Operator, opts PercentileOptions) (*Threshold, error) {
	if refStart.IsZero() || refEnd.IsZero() {
		return nil, fmt.Errorf("%w: percentile threshold needs both reference period endpoints", ErrConfiguration)
	}
	if !refEnd.After(refStart) {
		return nil, fmt.Errorf("%w: invalid reference period %s..%s", ErrConfiguration,
			refStart.Format(time.DateOnly), refEnd.Format(time.DateOnly))
	}
	if q < 0 || q > 100 {
		return nil, fmt.Errorf("%w: percentile %g out of range 0..100", ErrConfiguration, q)
	}
	window := opts.Window
	if window == 0 {
		window = DefaultPercentileWindow
	}
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("%w: percentile window must be odd, got %d", ErrConfiguration, window)
	}

	ref := full.SelectRange(refStart, refEnd)
	if opts.OnlyLeapYears {
		reduced, err := ref.OnlyLeapYears()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		ref = reduced
	}
	if ref.IsEmpty() {
		return nil, fmt.Errorf("%w: reference period %s..%s selects no samples from series %q",
			ErrConfiguration, refStart.Format(time.DateOnly), refEnd.Format(time.DateOnly), full.Name)
	}

	return &Threshold{
		Kind:          ThresholdPercentile,
		Operator:      op,
		Unit:          ref.Unit,
		Percentile:    q,
		Window:        window,
		Interpolation: opts.Interpolation,
		Reference:     ref,
		RefStart:      refStart,
		RefEnd:        refEnd,
		Bootstrap:     opts.Bootstrap,
	}, nil
}

// BootstrapYears returns the calendar years present in both the study series
// and the reference sample. A percentile threshold is bootstrap-eligible iff
// that overlap is non-empty: a study point must not influence its own
// percentile.
func (th *Threshold) BootstrapYears(study *series.Series) []int {
	if th.Kind != ThresholdPercentile || !th.Bootstrap {
		return nil
	}
	refYears := make(map[int]bool)
	for _, y := range th.Reference.Years() {
		refYears[y] = true
	}
	var overlap []int
	for _, y := range study.Years() {
		if refYears[y] {
			overlap = append(overlap, y)
		}
	}
	return overlap
}

// StandardName is the threshold fragment of a CF-style standard name,
// e.g. "35degC" or "90th_percentile".
func (th *Threshold) StandardName() string {
	switch th.Kind {
	case ThresholdScalar:
		return fmt.Sprintf("%g%s", th.Value, strings.ReplaceAll(series.CanonicalUnit(th.Unit), "/", "_per_"))
	case ThresholdField:
		return "gridded_threshold"
	case ThresholdPercentile:
		return fmt.Sprintf("%gth_percentile", th.Percentile)
	}
	return "threshold"
}

// DisplayValue is the human-readable threshold used in long names.
func (th *Threshold) DisplayValue() string {
	switch th.Kind {
	case ThresholdScalar:
		return fmt.Sprintf("%g %s", th.Value, series.CanonicalUnit(th.Unit))
	case ThresholdField:
		return "per-gridpoint threshold"
	case ThresholdPercentile:
		return fmt.Sprintf("%gth percentile", th.Percentile)
	}
	return "threshold"
}

// AdditionalMetadata describes percentile parameters for descriptions; empty
// for the other kinds.
func (th *Threshold) AdditionalMetadata() string {
	if th.Kind != ThresholdPercentile {
		return ""
	}
	return fmt.Sprintf("%d day window, %s interpolation, reference period %s to %s",
		th.Window, th.Interpolation,
		th.RefStart.Format(time.DateOnly), th.RefEnd.Format(time.DateOnly))
}

// ResolvedThreshold is a threshold normalized into the study series' unit
// system, ready for elementwise comparison.
type ResolvedThreshold struct {
	kind   ThresholdKind
	scalar float64
	field  []float64
	doy    *series.DOYField
}

// CalendarIndexed reports whether comparison values vary by calendar day and
// must be broadcast by day of year rather than by date.
func (rt *ResolvedThreshold) CalendarIndexed() bool { return rt.kind == ThresholdPercentile }

// DOYField exposes the resolved percentile field (nil for other kinds), used
// when the caller asked to save percentiles.
func (rt *ResolvedThreshold) DOYField() *series.DOYField { return rt.doy }

// At returns the comparison value for grid point p at time t.
func (rt *ResolvedThreshold) At(t time.Time, p int) float64 {
	switch rt.kind {
	case ThresholdScalar:
		return rt.scalar
	case ThresholdField:
		if p < 0 || p >= len(rt.field) {
			return series.Missing()
		}
		return rt.field[p]
	case ThresholdPercentile:
		return rt.doy.At(series.DayOfYear(t), p)
	}
	return series.Missing()
}

// Resolver turns threshold specifications into resolved comparison values.
// The optional cache keeps day-of-year percentile fields across calls that
// reference the same sample; resolution is by far the most expensive part of
// a percentile index.
type Resolver struct {
	cache *percentileCache
}

// NewResolver creates a Resolver. cacheSize <= 0 disables caching.
func NewResolver(cacheSize int) *Resolver {
	r := &Resolver{}
	if cacheSize > 0 {
		r.cache = newPercentileCache(cacheSize)
	}
	return r
}

// Resolve normalizes th into the unit system of the study series.
func (r *Resolver) Resolve(th *Threshold, study *series.Series) (*ResolvedThreshold, error) {
	switch th.Kind {
	case ThresholdScalar:
		v, err := series.ConvertValue(th.Value, th.Unit, study.Unit)
		if err != nil {
			return nil, fmt.Errorf("resolve scalar threshold: %w", err)
		}
		return &ResolvedThreshold{kind: ThresholdScalar, scalar: v}, nil

	case ThresholdField:
		if len(th.Field) != study.Points() {
			return nil, fmt.Errorf("%w: threshold field has %d points, study series %q has %d",
				ErrConfiguration, len(th.Field), study.Name, study.Points())
		}
		field := make([]float64, len(th.Field))
		for i, v := range th.Field {
			converted, err := series.ConvertValue(v, th.Unit, study.Unit)
			if err != nil {
				return nil, fmt.Errorf("resolve threshold field: %w", err)
			}
			field[i] = converted
		}
		return &ResolvedThreshold{kind: ThresholdField, field: field}, nil

	case ThresholdPercentile:
		doy, err := r.resolvePercentile(th, study, 0)
		if err != nil {
			return nil, err
		}
		return &ResolvedThreshold{kind: ThresholdPercentile, doy: doy}, nil
	}
	return nil, fmt.Errorf("%w: unknown threshold kind %d", ErrConfiguration, th.Kind)
}

// resolvePercentile computes (or fetches) the day-of-year percentile field in
// the study series' unit, optionally leaving out one calendar year.
func (r *Resolver) resolvePercentile(th *Threshold, study *series.Series, excludeYear int) (*series.DOYField, error) {
	key := percentileCacheKey(th, study.Unit, excludeYear)
	if r.cache != nil {
		if field, ok := r.cache.get(key); ok {
			return field, nil
		}
	}
	ref, err := series.ConvertUnits(th.Reference, study.Unit)
	if err != nil {
		return nil, fmt.Errorf("resolve percentile threshold: %w", err)
	}
	field, err := series.PercentileDOY(ref, th.Percentile, th.Window, th.Interpolation, excludeYear)
	if err != nil {
		return nil, fmt.Errorf("resolve percentile threshold: %w", err)
	}
	if r.cache != nil {
		r.cache.put(key, field)
	}
	return field, nil
}
