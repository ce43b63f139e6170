package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	adaptoidc "github.com/secureops/secureops-client/internal/adapters/oidc"
	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
	"golang.org/x/oauth2"
)

const (
	pathLogin   = "/auth/login"
	pathSignup  = "/auth/signup"
	pathRefresh = "/auth/refresh"
	pathLogout  = "/auth/logout"
	pathMe      = "/auth/me"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (r tokenResponse) token(ctx context.Context, dec ports.ClaimsDecoder) (*oauth2.Token, error) {
	if strings.TrimSpace(r.AccessToken) == "" {
		return nil, apperrors.Internal("response carried no access token")
	}
	return adaptoidc.NewToken(ctx, dec, r.AccessToken, r.TokenType), nil
}

// Login exchanges credentials for an access token. The backend also sets the
// refresh cookie, which the transport's jar keeps.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (*oauth2.Token, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	body, err := jsonBody(creds)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode login")
	}

	var out tokenResponse
	if err := c.call(ctx, &ports.Request{
		Method:      http.MethodPost,
		Path:        pathLogin,
		ContentType: "application/json",
		Body:        body,
		Kind:        ports.KindLogin,
	}, &out); err != nil {
		return nil, err
	}
	return out.token(ctx, c.claims)
}

// Signup creates an account. The default role is applied when none is given.
func (c *Client) Signup(ctx context.Context, in domainauth.SignupInput) (*domainauth.Account, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperrors.Validation("email and password are required")
	}
	if in.Role == "" {
		in.Role = domainauth.DefaultSignupRole
	}

	body, err := jsonBody(in)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode signup")
	}

	var out domainauth.Account
	if err := c.call(ctx, &ports.Request{
		Method:      http.MethodPost,
		Path:        pathSignup,
		ContentType: "application/json",
		Body:        body,
		Kind:        ports.KindSignup,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the backend to revoke the refresh cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, &ports.Request{
		Method: http.MethodPost,
		Path:   pathLogout,
		Kind:   ports.KindLogout,
	}, nil)
}

// Profile returns the signed-in user.
func (c *Client) Profile(ctx context.Context) (*domainauth.Profile, error) {
	var out domainauth.Profile
	if err := c.call(ctx, &ports.Request{Method: http.MethodGet, Path: pathMe}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshExchange posts to the refresh endpoint over the raw transport. It
// never goes through the request gateway: a 401 here means the refresh
// cookie is missing or expired, and there is nothing left to retry with.
type RefreshExchange struct {
	transport ports.Transport
	claims    ports.ClaimsDecoder
}

var _ ports.Exchanger = (*RefreshExchange)(nil)

// NewRefreshExchange creates the refresh exchange.
func NewRefreshExchange(transport ports.Transport, claims ports.ClaimsDecoder) (*RefreshExchange, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	return &RefreshExchange{transport: transport, claims: claims}, nil
}

// Exchange performs one refresh call.
func (e *RefreshExchange) Exchange(ctx context.Context) (*oauth2.Token, error) {
	resp, err := e.transport.Do(ctx, &ports.Request{
		Method: http.MethodPost,
		Path:   pathRefresh,
		Kind:   ports.KindRefresh,
	}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, ResponseError(resp)
	}

	var out tokenResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.token(ctx, e.claims)
}
