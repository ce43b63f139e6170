package ports

import (
	"context"

	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	"github.com/secureops/secureops-client/internal/domain/job"
	"golang.org/x/oauth2"
)

// AuthAPI is the backend's account and session surface.
type AuthAPI interface {
	// Login exchanges credentials for an access credential. The backend sets the
	// refresh credential out of band.
	Login(ctx context.Context, creds domainauth.Credentials) (*oauth2.Token, error)

	// Signup creates an account. It does not sign the user in.
	Signup(ctx context.Context, in domainauth.SignupInput) (*domainauth.Account, error)

	// Logout revokes the refresh credential server side.
	Logout(ctx context.Context) error

	// Profile returns the signed-in user's record.
	Profile(ctx context.Context) (*domainauth.Profile, error)
}

// UploadReceipt is the upload endpoint's response.
type UploadReceipt struct {
	JobID    string `json:"video_id"`
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
}

// JobAPI submits files and reports job status.
type JobAPI interface {
	Upload(ctx context.Context, file job.File, category job.Category) (UploadReceipt, error)
	Status(ctx context.Context, jobID string) (string, error)
}

// ResultsAPI fetches the outputs of a completed job.
type ResultsAPI interface {
	Summary(ctx context.Context, jobID string) (job.Summary, error)
	Violations(ctx context.Context, jobID string) ([]job.Violation, error)
	Proximity(ctx context.Context, jobID string) ([]job.ProximityEvent, error)
	Report(ctx context.Context, jobID string) ([]byte, error)
}

// ResultCache stores result bundles of completed jobs. Completed results are immutable.
type ResultCache interface {
	Get(ctx context.Context, jobID string) (job.Results, bool, error)
	Set(ctx context.Context, results job.Results) error
}
