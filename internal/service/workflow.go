package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/observability/statsd"
	"github.com/secureops/secureops-client/internal/ports"
)

// UploadWorkflowOptions groups dependencies for UploadWorkflow.
type UploadWorkflowOptions struct {
	Jobs         ports.JobAPI
	Rules        job.Rules
	PollInterval time.Duration
	// Results is optional; when set, results are fetched as soon as the job completes.
	Results *ResultGateway
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// UploadWorkflow drives one job from category selection to results. It
// owns a JobTracker, a JobSubmitter and at most one running poll.
type UploadWorkflow struct {
	tracker   *JobTracker
	submitter *JobSubmitter
	poller    *JobPoller
	results   *ResultGateway
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64 // bumped by every stopPoll
	poll     *PollHandle
	fetched  *job.Results
	fetchErr error
	fetching chan struct{}
	closed   bool
}

// NewUploadWorkflow constructs a workflow with an idle image job.
func NewUploadWorkflow(opts UploadWorkflowOptions) (*UploadWorkflow, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "upload_workflow")

	tracker := NewJobTracker(JobTrackerOptions{
		Category: job.CategoryImage,
		Metrics:  opts.Metrics,
		Logger:   logger,
	})
	submitter, err := NewJobSubmitter(JobSubmitterOptions{
		Jobs:    opts.Jobs,
		Rules:   opts.Rules,
		Tracker: tracker,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	poller, err := NewJobPoller(JobPollerOptions{
		Jobs:     opts.Jobs,
		Interval: opts.PollInterval,
		Metrics:  opts.Metrics,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &UploadWorkflow{
		tracker:   tracker,
		submitter: submitter,
		poller:    poller,
		results:   opts.Results,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Job returns a snapshot of the workflow's job.
func (w *UploadWorkflow) Job() job.Job {
	return w.tracker.Job()
}

// Subscribe registers fn for job transitions.
func (w *UploadWorkflow) Subscribe(fn func(job.Transition)) func() {
	return w.tracker.Subscribe(fn)
}

// SelectCategory cancels any running poll and starts an idle job for c.
func (w *UploadWorkflow) SelectCategory(c job.Category) error {
	if !c.Valid() {
		return w.submitter.SelectCategory(c)
	}
	w.stopPoll()
	return w.submitter.SelectCategory(c)
}

// Validate checks files against the current category.
func (w *UploadWorkflow) Validate(files []job.File) error {
	return w.submitter.Validate(files, w.tracker.Job().Category)
}

// Submit uploads file under the current category and starts polling. A
// Reset or SelectCategory that lands before polling starts cancels it.
func (w *UploadWorkflow) Submit(ctx context.Context, file job.File) (job.Job, error) {
	if w.isClosed() {
		return w.Job(), apperrors.Validation("workflow is closed")
	}

	w.mu.Lock()
	gen := w.gen
	w.mu.Unlock()

	j, err := w.submitter.Submit(ctx, file, w.tracker.Job().Category)
	if err != nil {
		return j, err
	}

	// The poll is started and published under mu so a Reset or
	// SelectCategory either sees the handle or prevents it from starting.
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return j, apperrors.Validation("workflow is closed")
	}
	if w.gen != gen || w.tracker.Job().ID != j.ID {
		w.mu.Unlock()
		return w.Job(), apperrors.Wrap(context.Canceled, apperrors.ErrCodeCanceled, "job reset before polling started")
	}
	h, err := w.poller.Start(w.ctx, w.tracker)
	if err != nil {
		w.mu.Unlock()
		return j, err
	}
	prev := w.poll
	w.poll = h
	w.fetched, w.fetchErr = nil, nil
	fetching := make(chan struct{})
	w.fetching = fetching
	w.mu.Unlock()

	prev.Stop()
	go w.afterPoll(h, fetching)
	return j, nil
}

// afterPoll fetches results once the poll ends with a completed job.
func (w *UploadWorkflow) afterPoll(h *PollHandle, fetching chan struct{}) {
	defer close(fetching)

	j, err := h.Wait(context.Background())
	if err != nil || j.Status != job.StatusCompleted || w.results == nil {
		return
	}

	res, err := w.results.FetchAll(w.ctx, j)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.poll != h {
		return
	}
	if err != nil {
		w.fetchErr = err
		w.logger.Warn("result fetch failed", "job_id", j.ID, "error", err)
		return
	}
	w.fetched = &res
}

// Wait blocks until the running poll ends and returns the final job. The
// error is nil for a completed job and otherwise explains why polling ended.
func (w *UploadWorkflow) Wait(ctx context.Context) (job.Job, error) {
	w.mu.Lock()
	h := w.poll
	w.mu.Unlock()
	if h == nil {
		j := w.Job()
		if j.Status == job.StatusCompleted {
			return j, nil
		}
		return j, apperrors.Validationf("no job is being polled (status %s)", j.Status)
	}
	return h.Wait(ctx)
}

// Results returns the completed job's results, waiting for the fetch that
// started on completion when there is one.
func (w *UploadWorkflow) Results(ctx context.Context) (job.Results, error) {
	if w.results == nil {
		return job.Results{}, errors.New("workflow has no result gateway")
	}

	w.mu.Lock()
	fetching := w.fetching
	w.mu.Unlock()
	if fetching != nil {
		select {
		case <-fetching:
		case <-ctx.Done():
			return job.Results{}, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "results canceled")
		}
	}

	w.mu.Lock()
	fetched, fetchErr := w.fetched, w.fetchErr
	w.mu.Unlock()
	if fetched != nil && fetched.JobID == w.Job().ID {
		return *fetched, nil
	}
	if fetchErr != nil {
		w.logger.Debug("retrying result fetch", "error", fetchErr)
	}
	return w.results.FetchAll(ctx, w.Job())
}

// Reset cancels any running poll and returns to an idle job in the same
// category (back or retry).
func (w *UploadWorkflow) Reset() {
	w.stopPoll()
	w.tracker.Reset(w.tracker.Job().Category)
}

// Close tears the workflow down. Running polls stop; later submits fail.
func (w *UploadWorkflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.stopPoll()
	w.cancel()
}

func (w *UploadWorkflow) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *UploadWorkflow) stopPoll() {
	w.mu.Lock()
	h := w.poll
	w.poll = nil
	w.gen++
	w.fetched, w.fetchErr, w.fetching = nil, nil, nil
	w.mu.Unlock()
	h.Stop()
}
