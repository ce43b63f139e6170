package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/mocks"
	mockauth "github.com/secureops/secureops-client/internal/mocks/auth"
	"github.com/secureops/secureops-client/internal/ports"
	"github.com/secureops/secureops-client/internal/testutil"
)

type sessionFixture struct {
	backend    *mockauth.FakeBackend
	store      *TokenStore
	gateway    *RequestGateway
	controller *SessionController
	sink       *testutil.RecordingSink

	revoked atomic.Bool

	mu     sync.Mutex
	states []domainauth.AuthState
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		backend: mockauth.NewFakeBackend(),
		store:   NewTokenStore(),
		sink:    &testutil.RecordingSink{},
	}
	transport := &fakeTransport{handler: func(*ports.Request, string) (*ports.Response, error) {
		if f.revoked.Load() {
			return respond(http.StatusUnauthorized), nil
		}
		return respond(http.StatusOK), nil
	}}
	gw, err := NewRequestGateway(RequestGatewayOptions{
		Transport: transport,
		Exchanger: f.backend,
		Store:     f.store,
	})
	require.NoError(t, err)
	f.gateway = gw

	sc, err := NewSessionController(SessionControllerOptions{
		Auth:      f.backend,
		Refresher: gw,
		Store:     f.store,
		Events:    gw,
		Metrics:   f.sink,
	})
	require.NoError(t, err)
	t.Cleanup(sc.Close)
	sc.OnStateChange(func(prev, next domainauth.Session) {
		if prev.AuthState == next.AuthState {
			return
		}
		f.mu.Lock()
		f.states = append(f.states, next.AuthState)
		f.mu.Unlock()
	})
	f.controller = sc
	return f
}

func (f *sessionFixture) transitions() []domainauth.AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domainauth.AuthState(nil), f.states...)
}

func TestSessionController_StartsChecking(t *testing.T) {
	f := newSessionFixture(t)

	sess := f.controller.Session()
	assert.Equal(t, domainauth.AuthStateChecking, sess.AuthState)
	assert.True(t, sess.Loading)
	assert.Nil(t, sess.User)
}

func TestSessionController_BootstrapWithoutRefreshCredential(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.controller.Bootstrap(context.Background()))

	sess := f.controller.Session()
	assert.Equal(t, domainauth.AuthStateUnauthenticated, sess.AuthState)
	assert.False(t, sess.Loading)
	assert.Nil(t, sess.User)
	assert.Nil(t, f.store.Get())
	assert.Equal(t, 0, f.backend.Calls("Profile"))
}

func TestSessionController_BootstrapRestoresSession(t *testing.T) {
	f := newSessionFixture(t)
	f.backend.AddAccount("a@b.com", "pw", domainauth.RoleAdmin)
	f.backend.SignInAs("a@b.com")

	require.NoError(t, f.controller.Bootstrap(context.Background()))

	sess := f.controller.Session()
	require.True(t, sess.IsAuthenticated())
	assert.Equal(t, "a@b.com", sess.User.Email)
	assert.False(t, sess.Loading)
	assert.NotNil(t, f.store.Get())

	// Later calls do nothing.
	require.NoError(t, f.controller.Bootstrap(context.Background()))
	assert.Equal(t, 1, f.backend.Calls("Exchange"))
	assert.Equal(t, []domainauth.AuthState{domainauth.AuthStateAuthenticated}, f.transitions())
}

func TestSessionController_BootstrapProfileFailureClearsCredential(t *testing.T) {
	f := newSessionFixture(t)
	f.backend.AddAccount("a@b.com", "pw", domainauth.RoleViewer)
	f.backend.SignInAs("a@b.com")
	f.backend.ProfileErr = apperrors.Server(http.StatusInternalServerError, "")

	require.NoError(t, f.controller.Bootstrap(context.Background()))

	assert.Equal(t, domainauth.AuthStateUnauthenticated, f.controller.Session().AuthState)
	assert.Nil(t, f.store.Get())
}

func TestSessionController_BootstrapCanceled(t *testing.T) {
	f := newSessionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.controller.Bootstrap(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsCanceled(err))
	assert.Equal(t, domainauth.AuthStateUnauthenticated, f.controller.Session().AuthState)
}

func TestSessionController_LoginLogout(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.backend.AddAccount("a@b.com", "pw", domainauth.RoleAdmin)
	require.NoError(t, f.controller.Bootstrap(ctx))

	profile, err := f.controller.Login(ctx, " a@b.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", profile.Email)
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)

	sess := f.controller.Session()
	require.True(t, sess.IsAuthenticated())
	assert.False(t, sess.Loading)
	assert.Equal(t, "access-1", f.store.Get().AccessToken)

	// Mutating the returned profile does not leak into the session.
	profile.Email = "mutated"
	assert.Equal(t, "a@b.com", f.controller.Session().User.Email)

	f.controller.Logout(ctx)

	sess = f.controller.Session()
	assert.Equal(t, domainauth.AuthStateUnauthenticated, sess.AuthState)
	assert.Nil(t, sess.User)
	assert.Nil(t, f.store.Get())
	assert.False(t, f.backend.HasRefreshCredential())

	assert.Equal(t, []domainauth.AuthState{
		domainauth.AuthStateUnauthenticated,
		domainauth.AuthStateAuthenticated,
		domainauth.AuthStateUnauthenticated,
	}, f.transitions())
	assert.Equal(t, 3, f.sink.CountNamed("session.state_change"))
}

func TestSessionController_LoginFailure(t *testing.T) {
	tests := []struct {
		name          string
		signedInFirst bool
	}{
		{name: "first login"},
		{name: "failed re-login", signedInFirst: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newSessionFixture(t)
			f.backend.AddAccount("a@b.com", "pw", domainauth.RoleAdmin)
			if tt.signedInFirst {
				_, err := f.controller.Login(ctx, "a@b.com", "pw")
				require.NoError(t, err)
				require.NotNil(t, f.store.Get())
			}

			_, err := f.controller.Login(ctx, "a@b.com", "wrong")
			require.Error(t, err)
			assert.Equal(t, "Incorrect email or password", apperrors.UserMessage(err))

			sess := f.controller.Session()
			assert.Equal(t, domainauth.AuthStateUnauthenticated, sess.AuthState)
			assert.False(t, sess.Loading)
			assert.Nil(t, sess.User)
			assert.Nil(t, f.store.Get())
		})
	}
}

func TestSessionController_LogoutFailureStillClears(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	store := NewTokenStore()

	api.EXPECT().Login(gomock.Any(), domainauth.Credentials{Email: "a@b.com", Password: "pw"}).Return(bearer("access"), nil)
	api.EXPECT().Profile(gomock.Any()).Return(&domainauth.Profile{Email: "a@b.com", Role: domainauth.RoleViewer}, nil)
	api.EXPECT().Logout(gomock.Any()).Return(apperrors.Transport(errors.New("connection refused"), "logout"))

	sc, err := NewSessionController(SessionControllerOptions{
		Auth:      api,
		Refresher: newCoordinator(t, refreshTo("unused"), store, nil),
		Store:     store,
	})
	require.NoError(t, err)

	_, err = sc.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, store.Get())

	sc.Logout(ctx)
	assert.Nil(t, store.Get())
	assert.Equal(t, domainauth.AuthStateUnauthenticated, sc.Session().AuthState)
}

func TestSessionController_SignupDoesNotSignIn(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	require.NoError(t, f.controller.Bootstrap(ctx))

	acct, err := f.controller.Signup(ctx, domainauth.SignupInput{Email: " new@b.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", acct.Email)
	assert.Equal(t, domainauth.RoleViewer, acct.Role)
	assert.Equal(t, domainauth.AuthStateUnauthenticated, f.controller.Session().AuthState)
	assert.Nil(t, f.store.Get())
}

func TestSessionController_GatewaySessionEnd(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.backend.AddAccount("a@b.com", "pw", domainauth.RoleViewer)
	_, err := f.controller.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)

	// The account's credentials are revoked server side.
	f.backend.SignInAs("")
	f.revoked.Store(true)

	_, err = f.gateway.Send(ctx, &ports.Request{Method: http.MethodGet, Path: "/videos/1/status"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Nil(t, f.store.Get())
	assert.Equal(t, domainauth.AuthStateUnauthenticated, f.controller.Session().AuthState)
	assert.Nil(t, f.controller.Session().User)
}

func TestSessionController_SessionEndIgnoredAfterNewLogin(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.backend.AddAccount("a@b.com", "pw", domainauth.RoleViewer)
	_, err := f.controller.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)

	f.gateway.notifySessionEnded(apperrors.SessionEnded(nil))

	assert.True(t, f.controller.Session().IsAuthenticated())
}

func TestSessionController_NeverReentersChecking(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.controller.Bootstrap(context.Background()))

	f.controller.update(func(sess *domainauth.Session) {
		sess.AuthState = domainauth.AuthStateChecking
	})
	assert.Equal(t, domainauth.AuthStateUnauthenticated, f.controller.Session().AuthState)
}

func TestSessionController_OnStateChangeUnsubscribe(t *testing.T) {
	f := newSessionFixture(t)
	calls := 0
	unsubscribe := f.controller.OnStateChange(func(domainauth.Session, domainauth.Session) { calls++ })
	unsubscribe()
	unsubscribe()

	require.NoError(t, f.controller.Bootstrap(context.Background()))
	assert.Equal(t, 0, calls)
}

func TestNewSessionController_Validation(t *testing.T) {
	store := NewTokenStore()
	refresher := newCoordinator(t, refreshTo("x"), store, nil)
	backend := mockauth.NewFakeBackend()

	_, err := NewSessionController(SessionControllerOptions{Refresher: refresher, Store: store})
	require.Error(t, err)
	_, err = NewSessionController(SessionControllerOptions{Auth: backend, Store: store})
	require.Error(t, err)
	_, err = NewSessionController(SessionControllerOptions{Auth: backend, Refresher: refresher})
	require.Error(t, err)
}
