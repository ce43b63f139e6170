package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
	"golang.org/x/sync/errgroup"
)

// ResultGatewayOptions groups dependencies for ResultGateway.
type ResultGatewayOptions struct {
	Results ports.ResultsAPI
	// Cache is optional.
	Cache  ports.ResultCache
	Logger *slog.Logger
}

// ResultGateway fetches the outputs of completed jobs.
type ResultGateway struct {
	results ports.ResultsAPI
	cache   ports.ResultCache
	logger  *slog.Logger
}

// NewResultGateway constructs a ResultGateway.
func NewResultGateway(opts ResultGatewayOptions) (*ResultGateway, error) {
	if opts.Results == nil {
		return nil, errors.New("Results is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultGateway{
		results: opts.Results,
		cache:   opts.Cache,
		logger:  logger.With("component", "result_gateway"),
	}, nil
}

func requireCompleted(j job.Job) error {
	if !j.HasID() {
		return apperrors.ValidationField("job_id", "job has no id yet")
	}
	if j.Status != job.StatusCompleted {
		return apperrors.Validationf("results are available once the job completes (status %s)", j.Status)
	}
	return nil
}

// Summary fetches the summary of a completed job.
func (g *ResultGateway) Summary(ctx context.Context, j job.Job) (job.Summary, error) {
	if err := requireCompleted(j); err != nil {
		return job.Summary{}, err
	}
	return g.results.Summary(ctx, j.ID)
}

// Violations fetches the violations of a completed job.
func (g *ResultGateway) Violations(ctx context.Context, j job.Job) ([]job.Violation, error) {
	if err := requireCompleted(j); err != nil {
		return nil, err
	}
	return g.results.Violations(ctx, j.ID)
}

// Proximity fetches the proximity events of a completed job.
func (g *ResultGateway) Proximity(ctx context.Context, j job.Job) ([]job.ProximityEvent, error) {
	if err := requireCompleted(j); err != nil {
		return nil, err
	}
	return g.results.Proximity(ctx, j.ID)
}

// Report downloads the PDF report of a completed job.
func (g *ResultGateway) Report(ctx context.Context, j job.Job) ([]byte, error) {
	if err := requireCompleted(j); err != nil {
		return nil, err
	}
	return g.results.Report(ctx, j.ID)
}

// FetchAll fetches summary, violations and proximity concurrently. Bundles
// are served from and written to the cache when one is configured; cache
// failures are logged and never fail the fetch.
func (g *ResultGateway) FetchAll(ctx context.Context, j job.Job) (job.Results, error) {
	if err := requireCompleted(j); err != nil {
		return job.Results{}, err
	}

	if g.cache != nil {
		cached, ok, err := g.cache.Get(ctx, j.ID)
		switch {
		case err != nil:
			g.logger.Warn("result cache read failed", "job_id", j.ID, "error", err)
		case ok:
			return cached, nil
		}
	}

	out := job.Results{JobID: j.ID}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s, err := g.results.Summary(egCtx, j.ID)
		out.Summary = s
		return err
	})
	eg.Go(func() error {
		v, err := g.results.Violations(egCtx, j.ID)
		out.Violations = v
		return err
	})
	eg.Go(func() error {
		p, err := g.results.Proximity(egCtx, j.ID)
		out.Proximity = p
		return err
	})
	if err := eg.Wait(); err != nil {
		return job.Results{}, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, out); err != nil {
			g.logger.Warn("result cache write failed", "job_id", j.ID, "error", err)
		}
	}
	return out, nil
}
