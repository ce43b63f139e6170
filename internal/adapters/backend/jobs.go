package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
)

const pathUpload = "/videos/upload"

// Upload submits one file for processing and returns the backend's receipt.
// Callers validate the file first; this only guards against missing input.
func (c *Client) Upload(ctx context.Context, file job.File, category job.Category) (ports.UploadReceipt, error) {
	if !category.Valid() {
		return ports.UploadReceipt{}, apperrors.ValidationField("category", "unknown upload category")
	}
	if file.Open == nil {
		return ports.UploadReceipt{}, apperrors.ValidationField("files", "Please upload exactly one file.")
	}

	form := newUploadForm(file, category)

	var out ports.UploadReceipt
	if err := c.call(ctx, &ports.Request{
		Method:      http.MethodPost,
		Path:        pathUpload,
		ContentType: form.contentType(),
		Body:        form.Body,
	}, &out); err != nil {
		return ports.UploadReceipt{}, err
	}
	if strings.TrimSpace(out.JobID) == "" {
		return ports.UploadReceipt{}, apperrors.Internal("upload response carried no job id")
	}
	return out, nil
}

// Status returns the backend's raw status string for jobID.
func (c *Client) Status(ctx context.Context, jobID string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return "", apperrors.ValidationField("job_id", "job id is required")
	}

	var out struct {
		JobID  string `json:"video_id"`
		Status string `json:"status"`
	}
	if err := c.call(ctx, &ports.Request{
		Method: http.MethodGet,
		Path:   "/videos/" + url.PathEscape(jobID) + "/status",
	}, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}
