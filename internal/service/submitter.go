package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
)

// JobSubmitterOptions groups dependencies for JobSubmitter.
type JobSubmitterOptions struct {
	Jobs    ports.JobAPI
	Rules   job.Rules
	Tracker *JobTracker
	Logger  *slog.Logger
}

// JobSubmitter validates candidate files and submits them for processing.
type JobSubmitter struct {
	jobs    ports.JobAPI
	rules   job.Rules
	tracker *JobTracker
	logger  *slog.Logger
}

// NewJobSubmitter constructs a JobSubmitter. Rules default to job.DefaultRules.
func NewJobSubmitter(opts JobSubmitterOptions) (*JobSubmitter, error) {
	if opts.Jobs == nil {
		return nil, errors.New("Jobs is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("Tracker is required")
	}
	rules := opts.Rules
	if len(rules) == 0 {
		rules = job.DefaultRules()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobSubmitter{
		jobs:    opts.Jobs,
		rules:   rules,
		tracker: opts.Tracker,
		logger:  logger.With("component", "job_submitter"),
	}, nil
}

// SelectCategory discards any prior job state and starts an idle job for c.
func (s *JobSubmitter) SelectCategory(c job.Category) error {
	if !c.Valid() {
		return s.rules.Validate(nil, c)
	}
	s.tracker.Reset(c)
	return nil
}

// Validate checks files against the rule for c. Nothing is sent.
func (s *JobSubmitter) Validate(files []job.File, c job.Category) error {
	return s.rules.Validate(files, c)
}

// Submit validates file, then uploads it. The job moves to Uploading, then
// to Processing with the returned id, or to Failed with the server or
// transport message. Validation errors leave the job untouched.
func (s *JobSubmitter) Submit(ctx context.Context, file job.File, c job.Category) (job.Job, error) {
	if err := s.Validate([]job.File{file}, c); err != nil {
		return s.tracker.Job(), err
	}
	if current := s.tracker.Job(); current.Status == job.StatusUploading || current.Status == job.StatusProcessing {
		return current, apperrors.Validation("a job is already in progress; reset before submitting another file")
	}

	s.tracker.Begin(c)
	receipt, err := s.jobs.Upload(ctx, file, c)
	if err != nil {
		s.tracker.Fail("", apperrors.UserMessage(err))
		s.logger.Info("upload failed", "category", c, "file", file.Name, "error", err)
		return s.tracker.Job(), err
	}

	if !s.tracker.Accept(receipt.JobID) {
		// The job was reset while the upload was in flight.
		return s.tracker.Job(), apperrors.Wrap(context.Canceled, apperrors.ErrCodeCanceled, "job reset during upload")
	}
	return s.tracker.Job(), nil
}
