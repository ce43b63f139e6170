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

func resultsRequest(kind, jobID string) (*ports.Request, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, apperrors.ValidationField("job_id", "job id is required")
	}
	return &ports.Request{
		Method: http.MethodGet,
		Path:   "/results/" + kind,
		Query:  url.Values{"upload_id": {jobID}},
	}, nil
}

// Summary fetches the aggregated outcome of a job.
func (c *Client) Summary(ctx context.Context, jobID string) (job.Summary, error) {
	req, err := resultsRequest("summary", jobID)
	if err != nil {
		return job.Summary{}, err
	}
	var out job.Summary
	if err := c.call(ctx, req, &out); err != nil {
		return job.Summary{}, err
	}
	return out, nil
}

// Violations fetches the detected violations of a job.
func (c *Client) Violations(ctx context.Context, jobID string) ([]job.Violation, error) {
	req, err := resultsRequest("violations", jobID)
	if err != nil {
		return nil, err
	}
	out := []job.Violation{}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Proximity fetches the proximity events of a job.
func (c *Client) Proximity(ctx context.Context, jobID string) ([]job.ProximityEvent, error) {
	req, err := resultsRequest("proximity", jobID)
	if err != nil {
		return nil, err
	}
	out := []job.ProximityEvent{}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report downloads the PDF report of a job.
func (c *Client) Report(ctx context.Context, jobID string) ([]byte, error) {
	req, err := resultsRequest("report", jobID)
	if err != nil {
		return nil, err
	}
	req.Header = http.Header{"Accept": {"application/pdf"}}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
