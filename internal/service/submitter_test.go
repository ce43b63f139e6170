package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/mocks"
	"github.com/secureops/secureops-client/internal/ports"
)

func memFile(name, contentType, body string) job.File {
	return job.File{
		Name:        name,
		Size:        int64(len(body)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func newSubmitter(t *testing.T, jobs ports.JobAPI) (*JobSubmitter, *JobTracker) {
	t.Helper()
	tracker := NewJobTracker(JobTrackerOptions{Category: job.CategoryImage})
	s, err := NewJobSubmitter(JobSubmitterOptions{
		Jobs:    jobs,
		Rules:   job.NewRules(1024, 1024, 1024),
		Tracker: tracker,
	})
	require.NoError(t, err)
	return s, tracker
}

func TestJobSubmitter_SubmitAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobAPI(ctrl)
	s, tracker := newSubmitter(t, jobs)

	var during job.Status
	jobs.EXPECT().
		Upload(gomock.Any(), gomock.Any(), job.CategoryDocument).
		DoAndReturn(func(context.Context, job.File, job.Category) (ports.UploadReceipt, error) {
			during = tracker.Job().Status
			return ports.UploadReceipt{JobID: "job-7", Status: "PENDING"}, nil
		})

	require.NoError(t, s.SelectCategory(job.CategoryDocument))
	got, err := s.Submit(context.Background(), memFile("report.pdf", "application/pdf", "%PDF-1.7"), job.CategoryDocument)
	require.NoError(t, err)

	assert.Equal(t, job.StatusUploading, during)
	assert.Equal(t, "job-7", got.ID)
	assert.Equal(t, job.StatusProcessing, got.Status)
	assert.Equal(t, job.CategoryDocument, got.Category)
}

func TestJobSubmitter_ValidationSendsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobAPI(ctrl)
	s, tracker := newSubmitter(t, jobs)

	tests := []struct {
		name  string
		file  job.File
		field string
	}{
		{name: "wrong type", file: memFile("a.txt", "text/plain", "x"), field: "content_type"},
		{name: "too large", file: memFile("a.png", "image/png", strings.Repeat("x", 2048)), field: "size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Submit(context.Background(), tt.file, job.CategoryImage)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
			assert.Equal(t, job.StatusIdle, tracker.Job().Status)
		})
	}
}

func TestJobSubmitter_UploadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobAPI(ctrl)
	s, tracker := newSubmitter(t, jobs)

	jobs.EXPECT().Upload(gomock.Any(), gomock.Any(), job.CategoryImage).
		Return(ports.UploadReceipt{}, apperrors.Server(http.StatusBadRequest, "Invalid file type for image. Expected image/*"))

	got, err := s.Submit(context.Background(), memFile("a.png", "image/png", "png"), job.CategoryImage)
	require.Error(t, err)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, "Invalid file type for image. Expected image/*", got.Error)
	assert.False(t, tracker.Job().HasID())
}

func TestJobSubmitter_TransportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobAPI(ctrl)
	s, _ := newSubmitter(t, jobs)

	jobs.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.UploadReceipt{}, apperrors.Transport(errors.New("dial tcp: connection refused"), "upload request failed"))

	got, err := s.Submit(context.Background(), memFile("a.mp4", "video/mp4", "mp4"), job.CategoryVideo)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, "upload request failed", got.Error)
}

func TestJobSubmitter_RejectsWhileInProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobAPI(ctrl)
	s, tracker := newSubmitter(t, jobs)

	jobs.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.UploadReceipt{JobID: "job-1"}, nil).Times(1)

	_, err := s.Submit(context.Background(), memFile("a.png", "image/png", "png"), job.CategoryImage)
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), memFile("b.png", "image/png", "png"), job.CategoryImage)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "job-1", tracker.Job().ID)
}

func TestJobSubmitter_ResetDuringUpload(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobAPI(ctrl)
	s, tracker := newSubmitter(t, jobs)

	jobs.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, job.File, job.Category) (ports.UploadReceipt, error) {
			tracker.Reset(job.CategoryVideo)
			return ports.UploadReceipt{JobID: "job-1"}, nil
		})

	_, err := s.Submit(context.Background(), memFile("a.png", "image/png", "png"), job.CategoryImage)
	require.Error(t, err)
	assert.True(t, apperrors.IsCanceled(err))
	assert.Equal(t, job.New(job.CategoryVideo), tracker.Job())
}

func TestJobSubmitter_SelectCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, tracker := newSubmitter(t, mocks.NewMockJobAPI(ctrl))

	require.NoError(t, s.SelectCategory(job.CategoryVideo))
	assert.Equal(t, job.New(job.CategoryVideo), tracker.Job())

	err := s.SelectCategory(job.Category("audio"))
	require.Error(t, err)
	assert.Equal(t, "category", apperrors.GetField(err))
	assert.Equal(t, job.CategoryVideo, tracker.Job().Category)
}

func TestNewJobSubmitter_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewJobSubmitter(JobSubmitterOptions{Tracker: NewJobTracker(JobTrackerOptions{})})
	require.Error(t, err)
	_, err = NewJobSubmitter(JobSubmitterOptions{Jobs: mocks.NewMockJobAPI(ctrl)})
	require.Error(t, err)
}
