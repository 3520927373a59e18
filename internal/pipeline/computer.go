package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/index"
	"github.com/couchcryptid/climate-index-engine/internal/job"
	"github.com/couchcryptid/climate-index-engine/internal/observability"
)

// IndexComputer implements Computer by resolving the requested index in a
// catalog and evaluating it against the job's series payload.
type IndexComputer struct {
	catalog *index.Catalog
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewComputer creates an IndexComputer backed by the given catalog.
func NewComputer(catalog *index.Catalog, metrics *observability.Metrics, logger *slog.Logger) *IndexComputer {
	return &IndexComputer{
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
	}
}

// Compute parses one raw job and evaluates it. Any failure is folded into an
// error result carrying the job id, so the caller always gets something to
// publish.
func (c *IndexComputer) Compute(ctx context.Context, raw job.RawJob) job.Result {
	now := time.Now().UTC()

	var req job.Request
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return job.ErrorResult(string(raw.Key), "", fmt.Errorf("decode job: %w", err), now)
	}
	if req.JobID == "" {
		req.JobID = string(raw.Key)
	}

	if err := ctx.Err(); err != nil {
		return job.ErrorResult(req.JobID, req.Index, err, now)
	}

	indicator, err := job.ResolveIndicator(c.catalog, &req)
	if err != nil {
		return job.ErrorResult(req.JobID, req.Index, err, now)
	}

	cfg, err := job.BuildConfig(&req)
	if err != nil {
		return job.ErrorResult(req.JobID, req.Index, err, now)
	}

	start := time.Now()
	res, err := indicator.Compute(cfg)
	if err != nil {
		return job.ErrorResult(req.JobID, req.Index, err, time.Now().UTC())
	}
	c.metrics.ComputeDuration.WithLabelValues(indicator.ShortName()).Observe(time.Since(start).Seconds())
	c.metrics.BootstrapPasses.Add(float64(res.Diagnostics.BootstrapPasses))
	c.metrics.MaskedPeriods.Add(float64(res.Diagnostics.MaskedPeriods))

	c.logger.Debug("job computed",
		"job_id", req.JobID,
		"index", indicator.ShortName(),
		"periods", len(res.Series.Times),
	)

	return job.SuccessResult(&req, res, time.Now().UTC())
}
