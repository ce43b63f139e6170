package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/observability/metrics"
	"github.com/secureops/secureops-client/internal/observability/statsd"
	"github.com/secureops/secureops-client/internal/ports"
)

// SessionEndNotifier reports authorization failures surfaced by the gateway.
type SessionEndNotifier interface {
	OnSessionEnded(fn func(error)) func()
}

// SessionControllerOptions groups dependencies for SessionController.
type SessionControllerOptions struct {
	Auth      ports.AuthAPI
	Refresher ports.Refresher
	Store     *TokenStore
	// Events is optional; when set, a session ended by the gateway moves the
	// controller to Unauthenticated.
	Events  SessionEndNotifier
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// SessionController owns the process's Session: bootstrap, login, signup
// and logout, plus the tri-state auth flag and cached profile.
type SessionController struct {
	auth      ports.AuthAPI
	refresher ports.Refresher
	store     *TokenStore
	metrics   statsd.Sink
	logger    *slog.Logger

	bootstrapOnce sync.Once
	unsubscribe   func()

	mu        sync.Mutex
	session   domainauth.Session
	listeners map[uint64]func(prev, next domainauth.Session)
	nextID    uint64
}

// NewSessionController constructs a SessionController in the Checking state.
func NewSessionController(opts SessionControllerOptions) (*SessionController, error) {
	if opts.Auth == nil {
		return nil, errors.New("Auth is required")
	}
	if opts.Refresher == nil {
		return nil, errors.New("Refresher is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &SessionController{
		auth:      opts.Auth,
		refresher: opts.Refresher,
		store:     opts.Store,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "session_controller"),
		session: domainauth.Session{
			AuthState: domainauth.AuthStateChecking,
			Loading:   true,
		},
		listeners:   make(map[uint64]func(prev, next domainauth.Session)),
		unsubscribe: func() {},
	}
	if opts.Events != nil {
		s.unsubscribe = opts.Events.OnSessionEnded(s.handleSessionEnded)
	}
	return s, nil
}

// Session returns a snapshot of the current session.
func (s *SessionController) Session() domainauth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.session)
}

// Bootstrap restores a session from the ambient refresh credential. It runs
// once per controller; later calls are no-ops. A failed restore is the
// normal path for a visitor who never signed in and is not reported as an
// error; only cancellation of ctx is returned.
func (s *SessionController) Bootstrap(ctx context.Context) error {
	var err error
	s.bootstrapOnce.Do(func() {
		err = s.bootstrap(ctx)
	})
	return err
}

func (s *SessionController) bootstrap(ctx context.Context) error {
	if _, err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Debug("no session to restore", "error", err)
		s.setUnauthenticated()
		if ctx.Err() != nil {
			return apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "bootstrap canceled")
		}
		return nil
	}

	profile, err := s.auth.Profile(ctx)
	if err != nil {
		s.logger.Warn("profile fetch failed after refresh", "error", err)
		s.store.Clear()
		s.setUnauthenticated()
		if ctx.Err() != nil {
			return apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "bootstrap canceled")
		}
		return nil
	}

	s.setAuthenticated(profile)
	return nil
}

// Login signs in with email and password. On failure any previous
// credential is dropped, the session is left Unauthenticated and the error
// carries the backend's message.
func (s *SessionController) Login(ctx context.Context, email, password string) (*domainauth.Profile, error) {
	s.setLoading(true)

	tok, err := s.auth.Login(ctx, domainauth.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		s.store.Clear()
		s.setUnauthenticated()
		return nil, err
	}
	s.store.Set(tok)

	profile, err := s.auth.Profile(ctx)
	if err != nil {
		s.store.Clear()
		s.setUnauthenticated()
		return nil, err
	}

	s.setAuthenticated(profile)
	s.logger.Info("signed in", "user", profile.Email, "role", profile.Role)
	return copyProfile(profile), nil
}

// Signup creates an account. The session is not changed; callers sign in
// separately.
func (s *SessionController) Signup(ctx context.Context, in domainauth.SignupInput) (*domainauth.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	return s.auth.Signup(ctx, in)
}

// Logout revokes the refresh credential when it can, then always clears the
// access credential and ends the session. A failed revoke is logged only.
func (s *SessionController) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}
	s.store.Clear()
	s.setUnauthenticated()
}

// OnStateChange registers fn to run after every session change. The
// returned func unregisters it.
func (s *SessionController) OnStateChange(fn func(prev, next domainauth.Session)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close detaches the controller from gateway events.
func (s *SessionController) Close() {
	s.unsubscribe()
}

// handleSessionEnded runs when the gateway gives up on the credential. A
// credential stored since then (a fresh login) keeps the session alive.
func (s *SessionController) handleSessionEnded(err error) {
	if s.store.Get() != nil {
		return
	}
	if s.Session().AuthState == domainauth.AuthStateAuthenticated {
		s.logger.Info("session ended", "error", err)
	}
	s.setUnauthenticated()
}

func (s *SessionController) setLoading(loading bool) {
	s.update(func(sess *domainauth.Session) { sess.Loading = loading })
}

func (s *SessionController) setAuthenticated(p *domainauth.Profile) {
	s.update(func(sess *domainauth.Session) {
		sess.AuthState = domainauth.AuthStateAuthenticated
		sess.User = copyProfile(p)
		sess.Loading = false
	})
}

func (s *SessionController) setUnauthenticated() {
	s.update(func(sess *domainauth.Session) {
		sess.AuthState = domainauth.AuthStateUnauthenticated
		sess.User = nil
		sess.Loading = false
	})
}

func (s *SessionController) update(mutate func(*domainauth.Session)) {
	s.mu.Lock()
	prev := snapshot(s.session)
	next := snapshot(s.session)
	mutate(&next)
	if next.AuthState != prev.AuthState && !prev.AuthState.CanTransition(next.AuthState) {
		s.mu.Unlock()
		s.logger.Error("illegal session transition", "from", prev.AuthState, "to", next.AuthState)
		return
	}
	if sameSession(prev, next) {
		s.mu.Unlock()
		return
	}
	s.session = next
	fns := make([]func(prev, next domainauth.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if next.AuthState != prev.AuthState {
		metrics.EmitSessionState(s.metrics, next.AuthState.String())
		s.logger.Debug("session state changed", "from", prev.AuthState, "to", next.AuthState)
	}
	for _, fn := range fns {
		fn(snapshot(prev), snapshot(next))
	}
}

func sameSession(a, b domainauth.Session) bool {
	if a.AuthState != b.AuthState || a.Loading != b.Loading {
		return false
	}
	switch {
	case a.User == nil && b.User == nil:
		return true
	case a.User == nil || b.User == nil:
		return false
	default:
		return *a.User == *b.User
	}
}

func snapshot(sess domainauth.Session) domainauth.Session {
	sess.User = copyProfile(sess.User)
	return sess
}

func copyProfile(p *domainauth.Profile) *domainauth.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
