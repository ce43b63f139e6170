package config

import (
	"strings"
	"time"
)

// APIConfig contains backend API configuration.
type APIConfig struct {
	// BaseURL is prefixed to every REST path (e.g., "https://secureops.example.com/api/v1").
	BaseURL string `env:"SECUREOPS_API_URL" envDefault:"http://localhost:8000/api/v1"`

	// RequestTimeout bounds every backend call, including the single retry.
	// A timeout surfaces as a transport error, never as a 401.
	RequestTimeout time.Duration `env:"SECUREOPS_REQUEST_TIMEOUT" envDefault:"30s"`

	// UserAgent is sent on every request.
	UserAgent string `env:"SECUREOPS_USER_AGENT" envDefault:"secureops-client"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.RequestTimeout <= 0 {
		a.RequestTimeout = 30 * time.Second
	}
	if strings.TrimSpace(a.UserAgent) == "" {
		a.UserAgent = "secureops-client"
	}
}
