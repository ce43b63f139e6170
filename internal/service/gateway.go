package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/observability/metrics"
	"github.com/secureops/secureops-client/internal/observability/statsd"
	"github.com/secureops/secureops-client/internal/ports"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries one id per original call; a retry reuses it.
const RequestIDHeader = "X-Request-ID"

// RequestGatewayOptions groups dependencies for RequestGateway.
type RequestGatewayOptions struct {
	Transport ports.Transport
	Exchanger ports.Exchanger
	Store     *TokenStore
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// RequestGateway is the single path for backend calls. It attaches the
// current access credential and, when a call draws a 401, refreshes once
// and resends the call exactly once.
type RequestGateway struct {
	transport ports.Transport
	store     *TokenStore
	refresher *RefreshCoordinator
	metrics   statsd.Sink
	logger    *slog.Logger

	mu        sync.Mutex
	listeners map[uint64]func(error)
	nextID    uint64
}

var (
	_ ports.Sender    = (*RequestGateway)(nil)
	_ ports.Refresher = (*RequestGateway)(nil)
)

// NewRequestGateway constructs a RequestGateway and its refresh coordinator.
func NewRequestGateway(opts RequestGatewayOptions) (*RequestGateway, error) {
	if opts.Transport == nil {
		return nil, errors.New("Transport is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	refresher, err := NewRefreshCoordinator(RefreshCoordinatorOptions{
		Exchanger: opts.Exchanger,
		Store:     opts.Store,
		Metrics:   opts.Metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &RequestGateway{
		transport: opts.Transport,
		store:     opts.Store,
		refresher: refresher,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "request_gateway"),
		listeners: make(map[uint64]func(error)),
	}, nil
}

// attempt is the per-call retry state. It lives on the stack of one Send
// and is never shared between calls.
type attempt struct {
	requestID string
	retried   bool
}

// Send issues req. Responses other than a 401 on a refreshable request are
// returned unmodified, including non-2xx ones. A 401 is recovered at most
// once; if the refresh fails or the resent call draws another 401 the result
// is an authorization error and session-ended listeners are notified.
func (g *RequestGateway) Send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	if req == nil {
		return nil, apperrors.Internal("nil request")
	}

	call := attempt{requestID: uuid.NewString()}
	out := *req
	out.Header = req.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, call.requestID)
	}

	start := time.Now()
	resp, err := g.send(ctx, &out, &call)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.EmitRequest(g.metrics, metrics.RequestMetric{
		Kind:     out.Kind.String(),
		Method:   out.Method,
		Status:   status,
		Retried:  call.retried,
		Duration: time.Since(start),
		Err:      err,
	})
	return resp, err
}

func (g *RequestGateway) send(ctx context.Context, req *ports.Request, call *attempt) (*ports.Response, error) {
	tok, version := g.store.Load()
	resp, err := g.transport.Do(ctx, req, tok)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.Kind.SkipsRefresh() {
		return resp, nil
	}

	call.retried = true
	retryTok, err := g.credentialForRetry(ctx, version)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			g.notifySessionEnded(err)
		}
		return nil, err
	}

	current, retryVersion := g.store.Load()
	resp, err = g.transport.Do(ctx, req, retryTok)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		g.logger.Info("retried request rejected", "path", req.Path, "request_id", call.requestID)
		if current == retryTok {
			g.refresher.discard(retryVersion)
		}
		authErr := apperrors.SessionEnded(apperrors.Server(resp.StatusCode, "credential rejected after refresh"))
		g.notifySessionEnded(authErr)
		return nil, authErr
	}
	return resp, nil
}

// credentialForRetry returns the credential to resend with. If the store
// changed since the call was sent, another caller already refreshed (or a
// login happened) and that credential is used without a new exchange.
func (g *RequestGateway) credentialForRetry(ctx context.Context, sentVersion uint64) (*oauth2.Token, error) {
	return g.refresher.refreshSince(ctx, sentVersion)
}

// Refresh runs the coordinated refresh directly; used by session bootstrap.
func (g *RequestGateway) Refresh(ctx context.Context) (*oauth2.Token, error) {
	return g.refresher.Refresh(ctx)
}

// OnSessionEnded registers fn to run whenever the gateway surfaces an
// authorization error. The returned func unregisters it.
func (g *RequestGateway) OnSessionEnded(fn func(error)) func() {
	if fn == nil {
		return func() {}
	}
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

func (g *RequestGateway) notifySessionEnded(err error) {
	g.mu.Lock()
	fns := make([]func(error), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}
