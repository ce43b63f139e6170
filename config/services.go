package config

import (
	"time"

	"github.com/secureops/secureops-client/internal/domain/job"
)

const minPollInterval = 100 * time.Millisecond

// JobsConfig contains upload validation and status polling configuration.
type JobsConfig struct {
	// PollInterval is the fixed spacing between status polls.
	PollInterval time.Duration `env:"SECUREOPS_POLL_INTERVAL" envDefault:"2s"`

	// MaxImageBytes is the size limit for image uploads.
	MaxImageBytes int64 `env:"SECUREOPS_MAX_IMAGE_BYTES" envDefault:"10485760"`

	// MaxPDFBytes is the size limit for PDF uploads.
	MaxPDFBytes int64 `env:"SECUREOPS_MAX_PDF_BYTES" envDefault:"52428800"`

	// MaxVideoBytes is the size limit for video uploads.
	MaxVideoBytes int64 `env:"SECUREOPS_MAX_VIDEO_BYTES" envDefault:"104857600"`
}

// Sanitize applies guardrails to job configuration values.
func (j *JobsConfig) Sanitize() {
	if j.PollInterval < minPollInterval {
		j.PollInterval = minPollInterval
	}
	if j.MaxImageBytes <= 0 {
		j.MaxImageBytes = job.DefaultMaxImageBytes
	}
	if j.MaxPDFBytes <= 0 {
		j.MaxPDFBytes = job.DefaultMaxPDFBytes
	}
	if j.MaxVideoBytes <= 0 {
		j.MaxVideoBytes = job.DefaultMaxVideoBytes
	}
}

// Rules returns the validation rules for the configured limits.
func (j *JobsConfig) Rules() job.Rules {
	return job.NewRules(j.MaxImageBytes, j.MaxPDFBytes, j.MaxVideoBytes)
}
