package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secureops/secureops-client/internal/domain/job"
	"github.com/secureops/secureops-client/internal/testutil"
)

func TestJobTracker_Lifecycle(t *testing.T) {
	sink := &testutil.RecordingSink{}
	tracker := NewJobTracker(JobTrackerOptions{
		Category: job.CategoryDocument,
		Metrics:  sink,
		Now:      testutil.FixedTimeFunc(testutil.TestTime()),
	})

	var seen []job.Transition
	tracker.Subscribe(func(tr job.Transition) { seen = append(seen, tr) })

	assert.Equal(t, job.New(job.CategoryDocument), tracker.Job())

	tracker.Begin(job.CategoryDocument)
	require.True(t, tracker.Accept("job-1"))
	assert.False(t, tracker.Processing("job-1"), "already processing")
	require.True(t, tracker.Complete("job-1"))

	got := tracker.Job()
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, job.StatusCompleted, got.Status)

	require.Len(t, seen, 3)
	assert.Equal(t, job.StatusIdle, seen[0].From)
	assert.Equal(t, job.StatusUploading, seen[0].To)
	assert.Equal(t, job.StatusProcessing, seen[1].To)
	assert.Equal(t, "job-1", seen[1].JobID)
	assert.Equal(t, job.StatusCompleted, seen[2].To)
	assert.Equal(t, testutil.TestTime(), seen[2].At)
	assert.Equal(t, 3, sink.CountNamed("job.transition"))
}

func TestJobTracker_TerminalIgnoresScopedUpdates(t *testing.T) {
	tracker := NewJobTracker(JobTrackerOptions{Category: job.CategoryImage})
	tracker.Begin(job.CategoryImage)
	tracker.Accept("job-1")
	require.True(t, tracker.Fail("job-1", job.GenericFailureMessage))

	assert.False(t, tracker.Complete("job-1"))
	assert.False(t, tracker.Processing("job-1"))

	got := tracker.Job()
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, job.GenericFailureMessage, got.Error)
}

func TestJobTracker_IgnoresOtherJobIDs(t *testing.T) {
	tracker := NewJobTracker(JobTrackerOptions{Category: job.CategoryVideo})
	tracker.Begin(job.CategoryVideo)
	tracker.Accept("job-2")

	assert.False(t, tracker.Complete("job-1"))
	assert.False(t, tracker.Fail("job-1", "stale"))
	assert.Equal(t, job.StatusProcessing, tracker.Job().Status)
}

func TestJobTracker_AcceptRequiresUploading(t *testing.T) {
	tracker := NewJobTracker(JobTrackerOptions{Category: job.CategoryImage})

	assert.False(t, tracker.Accept("job-1"))

	tracker.Begin(job.CategoryImage)
	tracker.Reset(job.CategoryImage)
	assert.False(t, tracker.Accept("job-1"), "reset while uploading")
	assert.Equal(t, job.New(job.CategoryImage), tracker.Job())
}

func TestJobTracker_UnscopedFailAndReset(t *testing.T) {
	tracker := NewJobTracker(JobTrackerOptions{Category: job.CategoryImage})
	tracker.Begin(job.CategoryImage)

	require.True(t, tracker.Fail("", "File too large"))
	assert.Equal(t, job.StatusFailed, tracker.Job().Status)
	assert.False(t, tracker.Job().HasID())

	tracker.Reset(job.CategoryVideo)
	assert.Equal(t, job.New(job.CategoryVideo), tracker.Job())
}

func TestJobTracker_Unsubscribe(t *testing.T) {
	tracker := NewJobTracker(JobTrackerOptions{Category: job.CategoryImage})
	calls := 0
	unsubscribe := tracker.Subscribe(func(job.Transition) { calls++ })

	tracker.Begin(job.CategoryImage)
	unsubscribe()
	unsubscribe()
	tracker.Accept("job-1")

	assert.Equal(t, 1, calls)
}
