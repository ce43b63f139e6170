package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/observability/metrics"
	"github.com/secureops/secureops-client/internal/observability/statsd"
	"github.com/secureops/secureops-client/internal/ports"
)

// DefaultPollInterval is the spacing between status queries.
const DefaultPollInterval = 2 * time.Second

// JobPollerOptions groups dependencies for JobPoller.
type JobPollerOptions struct {
	Jobs     ports.JobAPI
	Interval time.Duration
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// JobPoller queries job status on a fixed interval until the job reaches a
// terminal state or the poll is stopped.
type JobPoller struct {
	jobs     ports.JobAPI
	interval time.Duration
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewJobPoller constructs a JobPoller.
func NewJobPoller(opts JobPollerOptions) (*JobPoller, error) {
	if opts.Jobs == nil {
		return nil, errors.New("Jobs is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobPoller{
		jobs:     opts.Jobs,
		interval: interval,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "job_poller"),
	}, nil
}

// PollHandle controls one running poll.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	job job.Job
	err error
}

// Stop cancels the poll. It is safe to call any number of times, including
// after the poll has finished.
func (h *PollHandle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
}

// Done is closed when the poll goroutine has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the poll exits or ctx is done, then returns the last
// job snapshot and the reason polling ended: nil for a completed job, a
// processing error for a failed one, an authorization error when the
// session ended, or a canceled error when stopped.
func (h *PollHandle) Wait(ctx context.Context) (job.Job, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		select {
		case <-h.done:
		default:
			return job.Job{}, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "wait canceled")
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.job, h.err
}

func (h *PollHandle) finish(j job.Job, err error) {
	h.mu.Lock()
	h.job, h.err = j, err
	h.mu.Unlock()
	close(h.done)
}

// Start begins polling the tracker's job. It refuses jobs without an id or
// already in a terminal state. The poll ends on the first tick that sees a
// terminal status, on an authorization error, or when ctx is canceled or
// the handle stopped. Other fetch errors are logged and retried next tick.
func (p *JobPoller) Start(ctx context.Context, tracker *JobTracker) (*PollHandle, error) {
	current := tracker.Job()
	if !current.Pollable() {
		return nil, apperrors.Validationf("job %q is not pollable in status %s", current.ID, current.Status)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	h := &PollHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		j, err := p.run(pollCtx, tracker, current)
		h.finish(j, err)
	}()
	return h, nil
}

func (p *JobPoller) run(ctx context.Context, tracker *JobTracker, j job.Job) (job.Job, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return tracker.Job(), apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "polling stopped")
		case <-ticker.C:
		}

		done, err := p.tick(ctx, tracker, j)
		if done {
			return tracker.Job(), err
		}
	}
}

// tick performs one status query. It reports whether polling should end.
func (p *JobPoller) tick(ctx context.Context, tracker *JobTracker, j job.Job) (bool, error) {
	raw, err := p.jobs.Status(ctx, j.ID)
	remote := job.NormalizeRemoteStatus(raw)
	metrics.EmitPollTick(p.metrics, j.Category, string(remote), err)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			return true, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "polling stopped")
		case apperrors.IsUnauthorized(err):
			tracker.Fail(j.ID, apperrors.SessionEndedMessage)
			return true, err
		default:
			p.logger.Debug("status query failed; retrying next tick", "job_id", j.ID, "error", err)
			return false, nil
		}
	}

	switch remote {
	case job.RemotePending, job.RemoteProcessing:
		tracker.Processing(j.ID)
		return false, nil
	case job.RemoteCompleted:
		tracker.Complete(j.ID)
		return true, nil
	case job.RemoteFailed:
		tracker.Fail(j.ID, job.GenericFailureMessage)
		return true, apperrors.Processing(job.GenericFailureMessage)
	default:
		p.logger.Warn("unknown job status; retrying next tick", "job_id", j.ID, "status", raw)
		return false, nil
	}
}
