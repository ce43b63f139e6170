package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/secureops/secureops-client/internal/domain/job"
	"github.com/secureops/secureops-client/internal/observability/metrics"
	"github.com/secureops/secureops-client/internal/observability/statsd"
)

// JobTracker holds the single Job of an upload workflow and reports every
// visible status change to its observers. Observers run synchronously on
// the goroutine that caused the change and must not call back into the
// tracker.
type JobTracker struct {
	metrics statsd.Sink
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	current   job.Job
	observers map[uint64]func(job.Transition)
	nextID    uint64
}

// JobTrackerOptions configures NewJobTracker.
type JobTrackerOptions struct {
	Category job.Category
	Metrics  statsd.Sink
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewJobTracker returns a tracker holding an idle job.
func NewJobTracker(opts JobTrackerOptions) *JobTracker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JobTracker{
		metrics:   opts.Metrics,
		logger:    logger,
		now:       now,
		current:   job.New(opts.Category),
		observers: make(map[uint64]func(job.Transition)),
	}
}

// Job returns a snapshot of the tracked job.
func (t *JobTracker) Job() job.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Subscribe registers fn for transitions. The returned func unregisters it.
func (t *JobTracker) Subscribe(fn func(job.Transition)) func() {
	if fn == nil {
		return func() {}
	}
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.observers[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.observers, id)
			t.mu.Unlock()
		})
	}
}

// Reset replaces the job with an idle one for category.
func (t *JobTracker) Reset(category job.Category) {
	t.apply("", func(j *job.Job) bool {
		*j = job.New(category)
		return true
	})
}

// Begin moves an idle or finished job to Uploading.
func (t *JobTracker) Begin(category job.Category) {
	t.apply("", func(j *job.Job) bool {
		*j = job.New(category)
		j.Status = job.StatusUploading
		return true
	})
}

// Accept records the job id returned by the upload call and moves to Processing.
func (t *JobTracker) Accept(id string) bool {
	return t.apply("", func(j *job.Job) bool {
		if j.Status != job.StatusUploading {
			return false
		}
		j.ID = id
		j.Status = job.StatusProcessing
		return true
	})
}

// Processing keeps the job with id in Processing; it is a no-op when it already is.
func (t *JobTracker) Processing(id string) bool {
	return t.apply(id, func(j *job.Job) bool {
		if j.Status == job.StatusProcessing {
			return false
		}
		j.Status = job.StatusProcessing
		return true
	})
}

// Complete marks the job with id Completed.
func (t *JobTracker) Complete(id string) bool {
	return t.apply(id, func(j *job.Job) bool {
		j.Status = job.StatusCompleted
		j.Error = ""
		return true
	})
}

// Fail marks the job Failed with message. An empty id applies to the job
// regardless of id (upload failures happen before one exists).
func (t *JobTracker) Fail(id, message string) bool {
	return t.apply(id, func(j *job.Job) bool {
		j.Status = job.StatusFailed
		j.Error = message
		return true
	})
}

// apply mutates the job when id matches (or id is empty) and the job is
// not terminal for id-scoped updates. It reports whether a transition
// was emitted.
func (t *JobTracker) apply(id string, mutate func(*job.Job) bool) bool {
	t.mu.Lock()
	if id != "" && (t.current.ID != id || t.current.Status.IsTerminal()) {
		t.mu.Unlock()
		return false
	}
	prev := t.current
	next := prev
	if !mutate(&next) || next == prev {
		t.mu.Unlock()
		return false
	}
	t.current = next

	tr := job.Transition{
		JobID:    next.ID,
		Category: next.Category,
		From:     prev.Status,
		To:       next.Status,
		Error:    next.Error,
		At:       t.now(),
	}
	fns := make([]func(job.Transition), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	metrics.EmitJobTransition(t.metrics, tr)
	t.logger.Info("job transition",
		"job_id", tr.JobID,
		"category", tr.Category,
		"from", tr.From,
		"to", tr.To)
	for _, fn := range fns {
		fn(tr)
	}
	return true
}
