package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/secureops/secureops-client/internal/ports"
)

const statusOK = "ok"

// Health is the backend's dependency report.
type Health struct {
	API       string    `json:"api"       yaml:"api"`
	Database  string    `json:"database"  yaml:"database"`
	Auth      string    `json:"auth"      yaml:"auth"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Healthy reports whether every dependency is ok.
func (h Health) Healthy() bool {
	return h.API == statusOK && h.Database == statusOK && h.Auth == statusOK
}

// Health queries the health endpoint. It needs no credential.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.call(ctx, &ports.Request{Method: http.MethodGet, Path: "/health"}, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}
