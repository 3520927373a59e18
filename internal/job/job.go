// Package job defines the wire format of compute jobs and their results, plus
// the conversion into engine configuration. One Kafka message on the source
// topic carries one Request; one message on the sink topic carries one Result.
package job

import (
	"context"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/index"
)

// RawJob is an unprocessed message from the source topic, with enough
// transport context for logging and offset commits.
type RawJob struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ThresholdSpec is the wire form of a comparison threshold.
type ThresholdSpec struct {
	Kind     string  `json:"kind"`               // "scalar", "field" or "percentile"
	Operator string  `json:"operator,omitempty"` // optional per-threshold override
	Unit     string  `json:"unit,omitempty"`

	Value float64   `json:"value,omitempty"` // scalar
	Field []float64 `json:"field,omitempty"` // per grid point

	// Percentile parameters.
	Percentile    float64 `json:"percentile,omitempty"`
	Window        int     `json:"window,omitempty"`
	Interpolation string  `json:"interpolation,omitempty"`
	RefStart      string  `json:"ref_start,omitempty"` // YYYY-MM-DD
	RefEnd        string  `json:"ref_end,omitempty"`   // YYYY-MM-DD, exclusive
	Bootstrap     bool    `json:"bootstrap,omitempty"`
	OnlyLeapYears bool    `json:"only_leap_years,omitempty"`
}

// Variable is the wire form of one input series plus its threshold.
type Variable struct {
	Name         string         `json:"name"`
	StandardName string         `json:"standard_name,omitempty"`
	LongName     string         `json:"long_name,omitempty"`
	Unit         string         `json:"unit"`
	Times        []time.Time    `json:"times"`
	Data         Grid           `json:"data"` // time-major grid rows
	Sampling     string         `json:"sampling,omitempty"`
	Threshold    *ThresholdSpec `json:"threshold,omitempty"`

	// Optional study-period trimming applied before computation.
	ClipStart   string `json:"clip_start,omitempty"` // YYYY-MM-DD
	ClipEnd     string `json:"clip_end,omitempty"`   // YYYY-MM-DD, exclusive
	IgnoreFeb29 bool   `json:"ignore_feb29,omitempty"`
}

// MissingSpec is the wire form of a missing-value policy override.
type MissingSpec struct {
	Method    string   `json:"method"`
	Tolerance *float64 `json:"tolerance,omitempty"`
}

// Request is one compute job.
type Request struct {
	JobID           string       `json:"job_id"`
	Index           string       `json:"index"`
	Frequency       string       `json:"frequency"`
	OutUnit         string       `json:"out_unit,omitempty"`
	SavePercentiles bool         `json:"save_percentiles,omitempty"`
	Missing         *MissingSpec `json:"missing,omitempty"`
	RefStart        string       `json:"ref_start,omitempty"` // default reference period for preset indices
	RefEnd          string       `json:"ref_end,omitempty"`
	Variables       []Variable   `json:"variables"`
}

// Result is the wire form of one computed index, or the error that prevented
// it. Exactly one of Error / the data fields is meaningful.
type Result struct {
	JobID       string                     `json:"job_id"`
	Index       string                     `json:"index"`
	Periods     []time.Time                `json:"periods,omitempty"` // resampling period starts
	Data        Grid                       `json:"data,omitempty"`
	Unit        string                     `json:"unit,omitempty"`
	Metadata    index.Metadata             `json:"metadata,omitzero"`
	Percentiles map[string]PercentileField `json:"percentiles,omitempty"`
	Diagnostics index.Diagnostics          `json:"diagnostics,omitzero"`
	Error       string                     `json:"error,omitempty"`
	ComputedAt  time.Time                  `json:"computed_at"`
}

// Failed reports whether the result carries an error instead of data.
func (r *Result) Failed() bool { return r.Error != "" }
