package transport

// Package transport performs single HTTP round trips against the backend API.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "secureops-client"
	// maxResponseBytes bounds buffered bodies; report PDFs are the largest payload.
	maxResponseBytes = 64 << 20
)

// HTTPTransportOptions configures NewHTTPTransport.
type HTTPTransportOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Client is optional. Its Jar is replaced when nil so the refresh cookie
	// set by login is carried on later calls.
	Client *http.Client
	Logger *slog.Logger
}

// HTTPTransport implements ports.Transport over net/http.
type HTTPTransport struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

var _ ports.Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport rooted at opts.BaseURL.
func NewHTTPTransport(opts HTTPTransportOptions) (*HTTPTransport, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base URL is required")
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	} else {
		clone := *client
		client = &clone
	}
	if client.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.Jar = jar
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPTransport{
		baseURL:   base,
		timeout:   timeout,
		userAgent: ua,
		client:    client,
		logger:    logger,
	}, nil
}

// Jar exposes the cookie jar holding the ambient refresh credential.
func (t *HTTPTransport) Jar() http.CookieJar { return t.client.Jar }

// Do performs one round trip. A non-2xx status is not an error; network
// failures and the per-call timeout are returned as transport errors, and a
// canceled caller context as a canceled error.
func (t *HTTPTransport) Do(ctx context.Context, req *ports.Request, tok *oauth2.Token) (*ports.Response, error) {
	if req == nil {
		return nil, apperrors.Internal("nil request")
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := t.build(callCtx, req, tok)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, t.mapError(ctx, err, "send request")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.logger.Debug("close response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, t.mapError(ctx, err, "read response")
	}

	return &ports.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (t *HTTPTransport) build(ctx context.Context, req *ports.Request, tok *oauth2.Token) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := t.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		rc, err := req.Body()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "open request body")
		}
		body = rc
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			_ = rc.Close()
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create request")
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	if tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(httpReq)
	}
	return httpReq, nil
}

func (t *HTTPTransport) mapError(parent context.Context, err error, op string) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Transport(err, fmt.Sprintf("request timed out after %s", t.timeout))
	}
	return apperrors.Transport(err, op)
}
