package auth

// Package auth contains domain-level types for the client session.
// It is pure and free of transport/adapter concerns.

import (
	"time"

	"github.com/secureops/secureops-client/internal/util"
)

// Role represents the role recorded on a backend account.
// Keep string form; the backend owns the set of valid values.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// DefaultSignupRole is used when signup is called without an explicit role.
const DefaultSignupRole = RoleViewer

// Profile is the user record returned by the profile endpoint.
type Profile struct {
	ID        string         `json:"id"         yaml:"id"`
	Email     string         `json:"email"      yaml:"email"`
	Role      Role           `json:"role"       yaml:"role"`
	IsActive  bool           `json:"is_active"  yaml:"is_active"`
	CreatedAt util.Timestamp `json:"created_at" yaml:"created_at"`
}

// AuthState is the tri-state authenticated flag of a Session.
type AuthState string

const (
	AuthStateChecking        AuthState = "checking"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateUnauthenticated AuthState = "unauthenticated"
)

// String returns the string form of the state.
func (s AuthState) String() string { return string(s) }

// CanTransition reports whether moving from s to next is a legal session transition.
// Checking is only ever left, never re-entered.
func (s AuthState) CanTransition(next AuthState) bool {
	switch next {
	case AuthStateChecking:
		return false
	case AuthStateAuthenticated, AuthStateUnauthenticated:
		return true
	default:
		return false
	}
}

// Session is the process-wide view of who is signed in.
// User is nil unless AuthState is Authenticated.
type Session struct {
	User      *Profile  `json:"user,omitempty"`
	AuthState AuthState `json:"auth_state"`
	Loading   bool      `json:"loading"`
}

// IsAuthenticated reports whether the session holds a signed-in user.
func (s Session) IsAuthenticated() bool {
	return s.AuthState == AuthStateAuthenticated && s.User != nil
}

// Credentials are the email/password pair used for login and signup.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput groups the fields sent to the signup endpoint.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Account is the created-account record returned by signup.
type Account = Profile

// AccessClaims are the claims carried inside an access token. They are read
// for scheduling and display only; the backend remains the authority.
type AccessClaims struct {
	Subject  string    `json:"sub"`
	Role     Role      `json:"role"`
	ID       string    `json:"jti"`
	Expiry   time.Time `json:"-"`
	IssuedAt time.Time `json:"-"`
}
