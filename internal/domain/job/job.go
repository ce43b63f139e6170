package job

import (
	"fmt"
	"strings"
	"time"
)

// Category is the upload category a Job is created for.
// The string form is the upload_type tag sent to the backend.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "pdf"
	CategoryVideo    Category = "video"
)

// Categories returns all valid categories in display order.
func Categories() []Category {
	return []Category{CategoryImage, CategoryDocument, CategoryVideo}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryImage, CategoryDocument, CategoryVideo:
		return true
	default:
		return false
	}
}

// Label returns the human label used in validation messages.
func (c Category) Label() string {
	switch c {
	case CategoryImage:
		return "Image"
	case CategoryDocument:
		return "PDF"
	case CategoryVideo:
		return "Video"
	default:
		return string(c)
	}
}

// String implements fmt.Stringer and pflag.Value.
func (c Category) String() string { return string(c) }

// Set implements pflag.Value so a Category can be bound to a CLI flag.
func (c *Category) Set(s string) error {
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Type implements pflag.Value.
func (c *Category) Type() string { return "category" }

// UnmarshalText implements encoding.TextUnmarshaler for Category to allow env parsing.
func (c *Category) UnmarshalText(text []byte) error {
	return c.Set(string(text))
}

// ParseCategory parses a category tag. "document" is accepted as an alias for pdf.
func ParseCategory(s string) (Category, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "document" {
		return CategoryDocument, nil
	}
	c := Category(v)
	if !c.Valid() {
		return "", fmt.Errorf("invalid category: %q (valid options: image, pdf, video)", s)
	}
	return c, nil
}

// Status is the client-side state of a Job.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions happen without an explicit reset.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RemoteStatus is the backend's job status, normalized to upper case.
type RemoteStatus string

const (
	RemotePending    RemoteStatus = "PENDING"
	RemoteProcessing RemoteStatus = "PROCESSING"
	RemoteCompleted  RemoteStatus = "COMPLETED"
	RemoteFailed     RemoteStatus = "FAILED"
)

// NormalizeRemoteStatus upper-cases and trims a backend status string.
func NormalizeRemoteStatus(s string) RemoteStatus {
	return RemoteStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// GenericFailureMessage is shown when the backend reports a job as failed.
const GenericFailureMessage = "Processing failed. Please try uploading again."

// Job is one upload workflow's view of a backend job.
// ID is empty until the upload endpoint returns an identifier.
type Job struct {
	ID       string   `json:"id,omitempty"    yaml:"id,omitempty"`
	Category Category `json:"category"        yaml:"category"`
	Status   Status   `json:"status"          yaml:"status"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// New returns an idle job for the category.
func New(c Category) Job {
	return Job{Category: c, Status: StatusIdle}
}

// HasID reports whether the backend has assigned an identifier.
func (j Job) HasID() bool { return j.ID != "" }

// Pollable reports whether a poller may run for this job.
func (j Job) Pollable() bool {
	return j.HasID() && !j.Status.IsTerminal()
}

// Transition records one externally visible status change.
type Transition struct {
	JobID    string    `json:"job_id,omitempty"`
	Category Category  `json:"category"`
	From     Status    `json:"from"`
	To       Status    `json:"to"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}
