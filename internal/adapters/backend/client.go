package backend

// Package backend implements the typed REST calls of the SecureOps API on
// top of a ports.Sender. Every call goes through the sender, so bearer
// handling and the 401 protocol stay in one place.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
)

// ClientOptions configures NewClient.
type ClientOptions struct {
	Sender ports.Sender
	// Claims decodes access tokens returned by login to stamp their expiry. Optional.
	Claims ports.ClaimsDecoder
	Logger *slog.Logger
}

// Client is the typed backend API.
type Client struct {
	sender ports.Sender
	claims ports.ClaimsDecoder
	logger *slog.Logger
}

var (
	_ ports.AuthAPI    = (*Client)(nil)
	_ ports.JobAPI     = (*Client)(nil)
	_ ports.ResultsAPI = (*Client)(nil)
)

// NewClient creates a backend client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Sender == nil {
		return nil, errors.New("sender is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{sender: opts.Sender, claims: opts.Claims, logger: logger}, nil
}

func jsonBody(v any) (func() (io.ReadCloser, error), error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}, nil
}

// send issues req and converts a non-2xx response into a server error.
func (c *Client) send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, ResponseError(resp)
	}
	return resp, nil
}

// call sends req and decodes a JSON success body into out (when non-nil).
func (c *Client) call(ctx context.Context, req *ports.Request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode %s %s response", req.Method, req.Path)
	}
	return nil
}

// ResponseError converts a non-2xx response into a server error carrying the
// backend's detail message when the body has one.
func ResponseError(resp *ports.Response) error {
	return apperrors.Server(resp.StatusCode, detailMessage(resp.Body))
}

// detailMessage extracts "detail" from an error body. The backend sends
// either a string or a list of validation entries with a "msg" field.
func detailMessage(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var entries []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil && len(entries) > 0 {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg == "" {
				continue
			}
			if field := lastLoc(e.Loc); field != "" {
				msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Msg))
			} else {
				msgs = append(msgs, e.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

func decodeJSON(resp *ports.Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode response")
	}
	return nil
}
