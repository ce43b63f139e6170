package auth

// Package auth contains a hand-written in-memory double of the backend's
// account surface. It keeps the ambient refresh credential as plain state so
// session tests can exercise bootstrap, login and logout without HTTP.

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
	"github.com/secureops/secureops-client/internal/util"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI   = (*FakeBackend)(nil)
	_ ports.Exchanger = (*FakeBackend)(nil)
)

type fakeAccount struct {
	password string
	profile  domainauth.Profile
}

// FakeBackend simulates the auth endpoints. The refresh credential is held
// per backend rather than per cookie jar: a successful login or SignInAs
// grants it, Logout and a failed exchange remove it.
type FakeBackend struct {
	// LogoutErr, when set, is returned by Logout and the refresh credential is kept.
	LogoutErr error
	// ProfileErr, when set, is returned by Profile.
	ProfileErr error
	// TokenTTL is the lifetime of issued access credentials (default 30m).
	TokenTTL time.Duration

	mu       sync.Mutex
	accounts map[string]fakeAccount
	signedIn string
	issued   int
	calls    map[string]int
	now      func() time.Time
}

// NewFakeBackend returns an empty backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		accounts: make(map[string]fakeAccount),
		calls:    make(map[string]int),
		now:      time.Now,
	}
}

// AddAccount registers an active account and returns its profile.
func (b *FakeBackend) AddAccount(email, password string, role domainauth.Role) domainauth.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(email, password, role)
}

func (b *FakeBackend) addLocked(email, password string, role domainauth.Role) domainauth.Profile {
	p := domainauth.Profile{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: util.Timestamp{Time: b.now().UTC().Truncate(time.Second)},
	}
	b.accounts[strings.ToLower(email)] = fakeAccount{password: password, profile: p}
	return p
}

// SignInAs grants the refresh credential for email, as if a previous process
// had logged in.
func (b *FakeBackend) SignInAs(email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signedIn = strings.ToLower(email)
}

// HasRefreshCredential reports whether a refresh credential is held.
func (b *FakeBackend) HasRefreshCredential() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signedIn != ""
}

// Calls returns how often the named method ran.
func (b *FakeBackend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *FakeBackend) Login(_ context.Context, creds domainauth.Credentials) (*oauth2.Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Login"]++

	acct, ok := b.accounts[strings.ToLower(creds.Email)]
	if !ok || acct.password != creds.Password {
		return nil, apperrors.Server(http.StatusUnauthorized, "Incorrect email or password")
	}
	if !acct.profile.IsActive {
		return nil, apperrors.Server(http.StatusForbidden, "Inactive user")
	}
	b.signedIn = strings.ToLower(creds.Email)
	return b.issueLocked(), nil
}

func (b *FakeBackend) Signup(_ context.Context, in domainauth.SignupInput) (*domainauth.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Signup"]++

	if _, exists := b.accounts[strings.ToLower(in.Email)]; exists {
		return nil, apperrors.Server(http.StatusBadRequest, "Email already registered")
	}
	role := in.Role
	if role == "" {
		role = domainauth.DefaultSignupRole
	}
	p := b.addLocked(in.Email, in.Password, role)
	return &p, nil
}

func (b *FakeBackend) Logout(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Logout"]++

	if b.LogoutErr != nil {
		return b.LogoutErr
	}
	b.signedIn = ""
	return nil
}

func (b *FakeBackend) Profile(context.Context) (*domainauth.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Profile"]++

	if b.ProfileErr != nil {
		return nil, b.ProfileErr
	}
	acct, ok := b.accounts[b.signedIn]
	if b.signedIn == "" || !ok {
		return nil, apperrors.SessionEnded(apperrors.Server(http.StatusUnauthorized, "Could not validate credentials"))
	}
	p := acct.profile
	return &p, nil
}

// Exchange trades the held refresh credential for a new access credential.
func (b *FakeBackend) Exchange(context.Context) (*oauth2.Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Exchange"]++

	if b.signedIn == "" {
		return nil, apperrors.Server(http.StatusUnauthorized, "Refresh token missing")
	}
	if _, ok := b.accounts[b.signedIn]; !ok {
		b.signedIn = ""
		return nil, apperrors.Server(http.StatusUnauthorized, "User not found or inactive")
	}
	return b.issueLocked(), nil
}

func (b *FakeBackend) issueLocked() *oauth2.Token {
	b.issued++
	ttl := b.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &oauth2.Token{
		AccessToken: fmt.Sprintf("access-%d", b.issued),
		TokenType:   "Bearer",
		Expiry:      b.now().Add(ttl),
	}
}
