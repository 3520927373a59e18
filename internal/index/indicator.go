package index

import (
	"fmt"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/series"
	"github.com/jonboulle/clockwork"
)

// Version is stamped into result history strings.
const Version = "0.3.0"

// clock is a package-level time source so tests can freeze the history
// timestamp via SetClock. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for history rendering. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// ClimateVariable is one named physical input series plus its optional
// threshold and calendar metadata. Owned by the caller for the duration of
// one computation; the pipeline never mutates it, indexer clipping works on
// copies.
type ClimateVariable struct {
	Name         string
	StandardName string // CF standard name; defaults to Name when empty
	LongName     string // prose name; defaults to Name when empty
	Study        *series.Series
	Threshold    *Threshold
	Sampling     series.Sampling // declared source sampling, checked in preprocess
}

func (cv *ClimateVariable) standardName() string {
	if cv.StandardName != "" {
		return cv.StandardName
	}
	return cv.Name
}

func (cv *ClimateVariable) longName() string {
	if cv.LongName != "" {
		return cv.LongName
	}
	return cv.Name
}

// Config bundles everything one index evaluation needs. Created fresh per
// call, owned by the caller, never retained by the pipeline.
type Config struct {
	Variables       []*ClimateVariable
	Frequency       series.Frequency
	OutUnit         string // optional override, e.g. "%" for percent-of-period
	SavePercentiles bool

	// Reference period bounds, used when a preset index has to instantiate a
	// percentile default threshold for a variable that arrived without one.
	RefStart time.Time
	RefEnd   time.Time
}

// Diagnostics carries computation counters the service layer exports as
// metrics.
type Diagnostics struct {
	BootstrapPasses int
	MaskedPeriods   int
}

// Result is the outcome of one index evaluation: the aggregated series with
// period-start time axis, the rendered metadata, and optionally the resolved
// percentile fields per input variable.
type Result struct {
	Series      *series.Series
	Metadata    Metadata
	Percentiles map[string]*series.DOYField
	Diagnostics Diagnostics
}

// Indicator is a named transform computing one climate statistic from one or
// more input series.
type Indicator interface {
	ShortName() string
	Compute(cfg *Config) (*Result, error)
}

// cfExpectedFamily maps the CF variable names the engine recognizes onto the
// physical unit family their series must carry. Unknown names are silently
// accepted; unregistered inputs must not block computation.
var cfExpectedFamily = map[string]string{
	"tas":     "temperature",
	"tasmax":  "temperature",
	"tasmin":  "temperature",
	"pr":      "precipitation_rate",
	"prcptot": "precipitation",
	"sfcWind": "wind_speed",
}

// cfCheck compares a known variable name's unit against the expected physical
// convention. Unknown variable names pass without comment.
func cfCheck(vars []*ClimateVariable) error {
	for _, cv := range vars {
		family, known := cfExpectedFamily[cv.Name]
		if !known {
			continue
		}
		if unitFamily(cv.Study.Unit) != family {
			return fmt.Errorf("%w: variable %q expects a %s unit, series carries %q",
				ErrConfiguration, cv.Name, family, cv.Study.Unit)
		}
	}
	return nil
}

// unitFamily probes which family a unit converts within, empty for unknown
// units.
func unitFamily(unit string) string {
	probes := map[string]string{
		"K":      "temperature",
		"mm":     "precipitation",
		"mm/day": "precipitation_rate",
		"m/s":    "wind_speed",
	}
	for base, family := range probes {
		if _, err := series.ConvertValue(0, unit, base); err == nil {
			return family
		}
	}
	return ""
}

// ResamplingIndicator is the generic base for indicators that aggregate over
// resampling periods: calendar and CF validation, metadata rendering and the
// missing-value mask. Instances are immutable after construction and safe for
// concurrent reuse; rendering returns a fresh Metadata record per call.
type ResamplingIndicator struct {
	shortName string
	templates Templates
	missing   MissingPolicy
}

func newResamplingIndicator(shortName string, templates Templates, missing MissingPolicy) ResamplingIndicator {
	return ResamplingIndicator{shortName: shortName, templates: templates, missing: missing}
}

// ShortName returns the indicator's catalog short name.
func (ri *ResamplingIndicator) ShortName() string { return ri.shortName }

// MissingPolicy returns the configured missing-value policy.
func (ri *ResamplingIndicator) MissingPolicy() MissingPolicy { return ri.missing }

// preprocess runs the validation and rendering stage: sampling consistency
// check, CF name check, metadata rendering against the per-call scope, then
// indexer clipping. Any failure aborts before a single comparison runs.
// Returns the clipped working copies (the caller's series stay untouched)
// and the rendered metadata.
func (ri *ResamplingIndicator) preprocess(cfg *Config, scope Scope) ([]*series.Series, Metadata, error) {
	for _, cv := range cfg.Variables {
		if err := series.CheckSampling(cv.Study, cv.Sampling); err != nil {
			return nil, Metadata{}, fmt.Errorf("preprocess: %w: %v", ErrCalendar, err)
		}
	}
	if err := cfCheck(cfg.Variables); err != nil {
		return nil, Metadata{}, fmt.Errorf("preprocess: %w", err)
	}
	md, err := RenderMetadata(ri.templates, scope)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("preprocess: %w", err)
	}

	clipped := make([]*series.Series, len(cfg.Variables))
	for i, cv := range cfg.Variables {
		clipped[i] = series.SelectTime(cv.Study, cfg.Frequency.Indexer())
	}
	return clipped, md, nil
}

// postprocess applies the missing-value mask when the policy is "skip" and
// stamps metadata, including the provenance history line, onto the result.
func (ri *ResamplingIndicator) postprocess(result *Result, inputs []inputForMask, freq series.Frequency, md Metadata) {
	if ri.missing.SkipAggregation() {
		result.Diagnostics.MaskedPeriods = maskMissingPeriods(ri.missing, inputs, freq, result.Series)
	}
	md.History = buildHistory(md.Identifier, freq, result.Series)
	result.Metadata = md
}

// buildHistory renders the provenance line attached to every result. The
// timestamp comes from the package clock; everything else is a pure function
// of the result.
func buildHistory(identifier string, freq series.Frequency, s *series.Series) string {
	var start, end string
	if !s.IsEmpty() {
		start = s.Times[0].Format("01-02-2006")
		end = s.Times[len(s.Times)-1].Format("01-02-2006")
	}
	return fmt.Sprintf("[%s] Calculation of %s index (%s) from %s to %s - climate-index-engine version: %s",
		clock.Now().UTC().Format(time.DateTime), identifier, freq.Description(), start, end, Version)
}
