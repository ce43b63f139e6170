package ports

// Package ports defines interfaces (hexagonal ports) between the client services
// and the adapters that talk to the backend.

import (
	"context"
	"io"
	"net/http"
	"net/url"

	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	"golang.org/x/oauth2"
)

// RequestKind tags requests whose 401 must not trigger a refresh-and-retry.
type RequestKind int

const (
	// KindDefault is an ordinary bearer-authenticated call.
	KindDefault RequestKind = iota
	// KindLogin is the credential exchange call.
	KindLogin
	// KindSignup creates an account.
	KindSignup
	// KindRefresh exchanges the ambient refresh credential.
	KindRefresh
	// KindLogout revokes the ambient refresh credential.
	KindLogout
)

// SkipsRefresh reports whether a 401 on this kind is returned as-is.
// Auth endpoints never recurse into the refresh protocol.
func (k RequestKind) SkipsRefresh() bool {
	return k != KindDefault
}

// String returns the metric tag for the kind.
func (k RequestKind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindSignup:
		return "signup"
	case KindRefresh:
		return "refresh"
	case KindLogout:
		return "logout"
	default:
		return "default"
	}
}

// Request describes one backend call relative to the configured base URL.
// Body, when set, must return a fresh reader on every call so the request
// can be sent again after a refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	ContentType string
	Body        func() (io.ReadCloser, error)
	Kind        RequestKind
}

// Response is a fully buffered backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs exactly one HTTP round trip. It attaches tok as a bearer
// header when tok is non-nil and maps network failures to transport errors.
type Transport interface {
	Do(ctx context.Context, req *Request, tok *oauth2.Token) (*Response, error)
}

// Sender is the single path for backend calls; implementations own the 401 protocol.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Refresher exchanges the ambient refresh credential for a new access credential.
type Refresher interface {
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

// Exchanger performs the raw refresh exchange. It is called only by the
// refresh coordinator, which guarantees at most one call in flight.
type Exchanger interface {
	Exchange(ctx context.Context) (*oauth2.Token, error)
}

// ClaimsDecoder reads the claims of an access token without verifying it.
type ClaimsDecoder interface {
	Decode(ctx context.Context, raw string) (domainauth.AccessClaims, error)
}
