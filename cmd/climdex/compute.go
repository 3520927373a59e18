package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/index"
	"github.com/couchcryptid/climate-index-engine/internal/job"
	"github.com/spf13/cobra"
)

type computeFlags struct {
	input           string
	output          string
	indexName       string
	frequency       string
	outUnit         string
	savePercentiles bool
	refStart        string
	refEnd          string
	thresholds      []float64
	thresholdUnit   string
	operator        string
	window          int
	interpolation   string
	bootstrap       bool
}

func newComputeCmd(definitionsPath *string) *cobra.Command {
	var flags computeFlags

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute an index from a job request file",
		Long: `Compute reads a job request JSON (same wire format as the Kafka source
topic), evaluates it, and writes the result JSON. Flags override the
corresponding request fields; --thresholds expands the request into one
result per scalar threshold value.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(*definitionsPath)
			if err != nil {
				return err
			}
			return runCompute(catalog, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "-", "job request JSON file, - for stdin")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "-", "result JSON file, - for stdout")
	cmd.Flags().StringVar(&flags.indexName, "index", "", "index to compute, overrides the request")
	cmd.Flags().StringVar(&flags.frequency, "frequency", "", "resampling frequency, overrides the request")
	cmd.Flags().StringVar(&flags.outUnit, "out-unit", "", "output unit override, e.g. %")
	cmd.Flags().BoolVar(&flags.savePercentiles, "save-percentiles", false, "attach resolved percentile fields to the result")
	cmd.Flags().StringVar(&flags.refStart, "ref-start", "", "reference period start, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.refEnd, "ref-end", "", "reference period end, YYYY-MM-DD, exclusive")
	cmd.Flags().Float64SliceVar(&flags.thresholds, "thresholds", nil, "scalar threshold values, one result per value")
	cmd.Flags().StringVar(&flags.thresholdUnit, "threshold-unit", "", "unit of the --thresholds values")
	cmd.Flags().StringVar(&flags.operator, "operator", "", "comparison operator for --thresholds, e.g. > or <=")
	cmd.Flags().IntVar(&flags.window, "window", 0, "day-of-year window for percentile thresholds")
	cmd.Flags().StringVar(&flags.interpolation, "interpolation", "", "percentile interpolation: linear or median_unbiased")
	cmd.Flags().BoolVar(&flags.bootstrap, "bootstrap", false, "bootstrap percentile thresholds in overlapping periods")

	return cmd
}

func runCompute(catalog *index.Catalog, flags *computeFlags) error {
	req, err := readRequest(flags.input)
	if err != nil {
		return err
	}
	applyOverrides(req, flags)

	results := make([]job.Result, 0, 1)
	for _, variant := range expandThresholds(*req, flags) {
		res, err := computeOne(catalog, &variant)
		if err != nil {
			return fmt.Errorf("job %q: %w", variant.JobID, err)
		}
		results = append(results, res)
	}
	return writeResults(flags.output, results)
}

func readRequest(path string) (*job.Request, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var req job.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

func applyOverrides(req *job.Request, flags *computeFlags) {
	if flags.indexName != "" {
		req.Index = flags.indexName
	}
	if flags.frequency != "" {
		req.Frequency = flags.frequency
	}
	if flags.outUnit != "" {
		req.OutUnit = flags.outUnit
	}
	if flags.savePercentiles {
		req.SavePercentiles = true
	}
	if flags.refStart != "" {
		req.RefStart = flags.refStart
	}
	if flags.refEnd != "" {
		req.RefEnd = flags.refEnd
	}
	for i := range req.Variables {
		th := req.Variables[i].Threshold
		if th == nil || th.Kind != "percentile" {
			continue
		}
		if flags.window > 0 {
			th.Window = flags.window
		}
		if flags.interpolation != "" {
			th.Interpolation = flags.interpolation
		}
		if flags.bootstrap {
			th.Bootstrap = true
		}
		if flags.refStart != "" {
			th.RefStart = flags.refStart
		}
		if flags.refEnd != "" {
			th.RefEnd = flags.refEnd
		}
	}
}

// expandThresholds turns one request into a variant per --thresholds value,
// each variable carrying the scalar threshold. Without the flag the request
// passes through unchanged.
func expandThresholds(req job.Request, flags *computeFlags) []job.Request {
	if len(flags.thresholds) == 0 {
		return []job.Request{req}
	}

	variants := make([]job.Request, 0, len(flags.thresholds))
	for _, value := range flags.thresholds {
		variant := req
		variant.Variables = make([]job.Variable, len(req.Variables))
		copy(variant.Variables, req.Variables)
		for i := range variant.Variables {
			variant.Variables[i].Threshold = &job.ThresholdSpec{
				Kind:     "scalar",
				Operator: flags.operator,
				Value:    value,
				Unit:     flags.thresholdUnit,
			}
		}
		if req.JobID != "" {
			variant.JobID = fmt.Sprintf("%s-%g%s", req.JobID, value, flags.thresholdUnit)
		}
		variants = append(variants, variant)
	}
	return variants
}

func computeOne(catalog *index.Catalog, req *job.Request) (job.Result, error) {
	indicator, err := job.ResolveIndicator(catalog, req)
	if err != nil {
		return job.Result{}, err
	}
	cfg, err := job.BuildConfig(req)
	if err != nil {
		return job.Result{}, err
	}
	res, err := indicator.Compute(cfg)
	if err != nil {
		return job.Result{}, err
	}
	return job.SuccessResult(req, res, time.Now().UTC()), nil
}

// writeResults emits a single object for one result and an array otherwise.
func writeResults(path string, results []job.Result) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}
