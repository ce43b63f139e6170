package errors

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/secureops/secureops-client/internal/errors"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: apperrors.Unauthorized("session ended", nil), want: "unauthorized"},
		{
			name: "wrapped app error",
			err:  fmt.Errorf("upload: %w", apperrors.Server(500, "")),
			want: "server",
		},
		{name: "canceled", err: fmt.Errorf("poll: %w", context.Canceled), want: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, want: "deadline_exceeded"},
		{name: "concrete type", err: &net.DNSError{Err: "no such host"}, want: "net_dnserror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
