package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/observability/metrics"
	"github.com/secureops/secureops-client/internal/observability/statsd"
	"github.com/secureops/secureops-client/internal/ports"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

var errCredentialCleared = errors.New("credential cleared while the request was in flight")

// RefreshCoordinatorOptions groups dependencies for RefreshCoordinator.
type RefreshCoordinatorOptions struct {
	Exchanger ports.Exchanger
	Store     *TokenStore
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// RefreshCoordinator exchanges the ambient refresh credential for a new
// access credential with at most one exchange in flight. Concurrent callers
// share the pending result; once it resolves the next call starts fresh.
type RefreshCoordinator struct {
	exchanger ports.Exchanger
	store     *TokenStore
	metrics   statsd.Sink
	logger    *slog.Logger
	group     singleflight.Group
}

var _ ports.Refresher = (*RefreshCoordinator)(nil)

// NewRefreshCoordinator constructs a RefreshCoordinator.
func NewRefreshCoordinator(opts RefreshCoordinatorOptions) (*RefreshCoordinator, error) {
	if opts.Exchanger == nil {
		return nil, errors.New("Exchanger is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshCoordinator{
		exchanger: opts.Exchanger,
		store:     opts.Store,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "refresh_coordinator"),
	}, nil
}

// Refresh returns a new access credential. On failure the store is cleared
// and the error is an authorization error: the session has ended.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (*oauth2.Token, error) {
	_, version := c.store.Load()
	return c.refreshSince(ctx, version)
}

// refreshSince refreshes unless the store was written after version, in
// which case the newer credential is returned without an exchange.
//
// The exchange is detached from ctx so one caller giving up does not fail
// the others sharing it; ctx only bounds how long this caller waits.
func (c *RefreshCoordinator) refreshSince(ctx context.Context, version uint64) (*oauth2.Token, error) {
	if tok, done, err := c.settledSince(version); done {
		return tok, err
	}

	start := time.Now()
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		// A flight that resolved between the check above and this call may
		// already have stored a newer credential.
		if tok, done, err := c.settledSince(version); done {
			return tok, err
		}
		return c.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "refresh canceled")
	case res := <-ch:
		metrics.EmitRefresh(c.metrics, metrics.RefreshMetric{
			Shared:   res.Shared,
			Duration: time.Since(start),
			Err:      res.Err,
		})
		if res.Err != nil {
			return nil, res.Err
		}
		tok, _ := res.Val.(*oauth2.Token)
		return tok, nil
	}
}

// settledSince reports whether the store was written after version. A newer
// credential is returned as is; a cleared store means the session already
// ended (failed refresh or logout) and is reported without another exchange.
func (c *RefreshCoordinator) settledSince(version uint64) (*oauth2.Token, bool, error) {
	tok, current := c.store.Load()
	if current == version {
		return nil, false, nil
	}
	if tok == nil {
		return nil, true, apperrors.SessionEnded(errCredentialCleared)
	}
	return tok, true, nil
}

func (c *RefreshCoordinator) exchange(ctx context.Context) (*oauth2.Token, error) {
	_, version := c.store.Load()
	c.logger.Debug("refresh started")

	tok, err := c.exchanger.Exchange(ctx)
	if err != nil {
		c.store.Invalidate(version)
		c.logger.Info("refresh failed", "error", err)
		return nil, apperrors.SessionEnded(err)
	}

	if !c.store.CompareAndSet(version, tok) {
		// A login landed while the exchange was in flight; its credential wins.
		if current := c.store.Get(); current != nil {
			c.logger.Debug("refresh superseded by newer credential")
			return current, nil
		}
		// Logout cleared the store mid-exchange; the late credential is dropped.
		c.logger.Debug("refresh discarded after the credential was cleared")
		return nil, apperrors.SessionEnded(errCredentialCleared)
	}
	c.logger.Debug("refresh succeeded", "expiry", tok.Expiry)
	return tok, nil
}

// discard clears the credential seen at version; used when the backend
// rejects a credential that was just refreshed.
func (c *RefreshCoordinator) discard(version uint64) {
	c.store.Invalidate(version)
}
