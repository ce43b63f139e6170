package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/testutil"
)

func TestEmitRequest(t *testing.T) {
	sink := &testutil.RecordingSink{}

	EmitRequest(sink, RequestMetric{
		Kind:     "default",
		Method:   "GET",
		Status:   401,
		Retried:  true,
		Duration: 25 * time.Millisecond,
		Err:      apperrors.Unauthorized("session ended", nil),
	})

	counts := sink.Counts()
	require.Len(t, counts, 1)
	assert.Equal(t, "gateway.request", counts[0].Name)
	assert.Equal(t, map[string]string{
		"kind":        "default",
		"method":      "GET",
		"retried":     "true",
		"status":      "401",
		"result":      ResultError,
		"error_class": "unauthorized",
	}, counts[0].Tags)

	timings := sink.Timings()
	require.Len(t, timings, 1)
	assert.Equal(t, "gateway.duration", timings[0].Name)
}

func TestEmitRefresh_SharedSkipsTiming(t *testing.T) {
	sink := &testutil.RecordingSink{}

	EmitRefresh(sink, RefreshMetric{Shared: true, Duration: time.Second})
	EmitRefresh(sink, RefreshMetric{Duration: time.Second, Err: errors.New("boom")})

	counts := sink.Counts()
	require.Len(t, counts, 2)
	assert.Equal(t, "true", counts[0].Tags["shared"])
	assert.Equal(t, ResultSuccess, counts[0].Tags["result"])
	assert.Equal(t, ResultError, counts[1].Tags["result"])
	assert.Len(t, sink.Timings(), 1)
}

func TestEmitJobTransition(t *testing.T) {
	sink := &testutil.RecordingSink{}

	EmitJobTransition(sink, job.Transition{
		JobID:    "abc",
		Category: job.CategoryDocument,
		From:     job.StatusUploading,
		To:       job.StatusProcessing,
	})

	counts := sink.Counts()
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"category": "pdf",
		"from":     "uploading",
		"to":       "processing",
	}, counts[0].Tags)
}

func TestEmitters_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitRequest(nil, RequestMetric{})
		EmitRefresh(nil, RefreshMetric{})
		EmitJobTransition(nil, job.Transition{})
		EmitPollTick(nil, job.CategoryImage, "PENDING", nil)
		EmitSessionState(nil, "authenticated")
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))

	src := map[string]string{"a": "1"}
	out := CloneTags(src)
	out["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
