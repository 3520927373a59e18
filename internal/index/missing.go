package index

import (
	"fmt"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// Missing-value policy methods. "skip" lets missing samples fall out of the
// aggregation and masks under-sampled periods afterwards; "from_context"
// defers to the aggregation's own NaN propagation; "any" and "pct" make the
// aggregation itself poison a period (any gap, or a gap fraction above the
// tolerance).
const (
	MissingSkip        = "skip"
	MissingFromContext = "from_context"
	MissingAny         = "any"
	MissingPct         = "pct"
)

// MissingPolicy configures how periods with insufficient valid data are
// handled.
type MissingPolicy struct {
	Method    string
	Tolerance float64 // MissingPct and MissingSkip: acceptable missing fraction, 0..1
	hasOpts   bool
}

// NewMissingPolicy validates a policy at indicator construction time.
// from_context rejects method-specific options since there is no method to
// apply them to.
func NewMissingPolicy(method string, tolerance *float64) (MissingPolicy, error) {
	p := MissingPolicy{Method: method}
	if tolerance != nil {
		p.Tolerance = *tolerance
		p.hasOpts = true
	}
	switch method {
	case "", MissingFromContext:
		p.Method = MissingFromContext
		if p.hasOpts {
			return MissingPolicy{}, fmt.Errorf("%w: cannot set missing-value options with method from_context", ErrConfiguration)
		}
	case MissingSkip, MissingPct:
		if p.hasOpts && (p.Tolerance < 0 || p.Tolerance >= 1) {
			return MissingPolicy{}, fmt.Errorf("%w: missing tolerance %g out of range [0,1)", ErrConfiguration, p.Tolerance)
		}
	case MissingAny:
		if p.hasOpts {
			return MissingPolicy{}, fmt.Errorf("%w: method %q takes no options", ErrConfiguration, MissingAny)
		}
	default:
		return MissingPolicy{}, fmt.Errorf("%w: unknown missing-value method %q", ErrConfiguration, method)
	}
	return p, nil
}

// validated normalizes a hand-assembled policy through the same checks the
// constructor applies.
func (p MissingPolicy) validated() (MissingPolicy, error) {
	if p.hasOpts || p.Tolerance != 0 {
		tol := p.Tolerance
		return NewMissingPolicy(p.Method, &tol)
	}
	return NewMissingPolicy(p.Method, nil)
}

// SkipAggregation reports whether the aggregation should drop missing samples
// (mask applied afterwards) instead of letting them poison the period sums.
func (p MissingPolicy) SkipAggregation() bool { return p.Method == MissingSkip }

// maskMissingPeriods implements the post-aggregation mask for the "skip"
// policy. For every input series it flags resampling periods whose valid
// sample count falls short of the calendar-expected count (beyond the
// tolerance), ORs the per-series masks, re-indexes the combined mask onto the
// result's time axis filling absent periods as invalid, and overwrites
// flagged periods in the result with the missing marker.
//
// The fill-as-invalid default is deliberate: when an indexer clips out the
// final period entirely, no data existed to judge it, and a period that could
// not be evaluated must never silently count as valid.
func maskMissingPeriods(p MissingPolicy, inputs []inputForMask, freq series.Frequency, result *series.Series) int {
	combined := make(map[time.Time]bool)
	for _, in := range inputs {
		if in.study.IsEmpty() {
			continue
		}
		for start, invalid := range periodInvalidMask(p, in, freq) {
			combined[start] = combined[start] || invalid
		}
	}

	masked := 0
	for i, start := range result.Times {
		invalid, evaluated := combined[start]
		if evaluated && !invalid {
			continue
		}
		// Either flagged invalid, or the mask had no entry for this period
		// (shorter mask axis): conservative fill.
		for pnt := range result.Data[i] {
			result.Data[i][pnt] = series.Missing()
		}
		masked++
	}
	return masked
}

// inputForMask pairs a preprocessed (indexer-clipped) study series with its
// native sampling so the expected per-period sample count can be derived.
type inputForMask struct {
	study    *series.Series
	sampling series.Sampling
	indexer  *series.TimeIndexer
}

// periodInvalidMask evaluates one series: period start -> "period is invalid".
func periodInvalidMask(p MissingPolicy, in inputForMask, freq series.Frequency) map[time.Time]bool {
	valid := series.PeriodValidCounts(in.study, freq)
	mask := make(map[time.Time]bool, len(valid))
	for start, n := range valid {
		expected := series.ExpectedSamples(freq, start, in.sampling, in.indexer)
		if expected == 0 {
			mask[start] = true
			continue
		}
		missingFrac := float64(expected-n) / float64(expected)
		mask[start] = missingFrac > p.Tolerance
	}
	return mask
}
