package service

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/secureops/secureops-client/internal/ports"
	"golang.org/x/oauth2"
)

// recordedCall is one round trip seen by fakeTransport.
type recordedCall struct {
	Path      string
	Kind      ports.RequestKind
	Token     string
	RequestID string
	Body      string
}

// fakeTransport answers from handler and records every call.
type fakeTransport struct {
	handler func(req *ports.Request, token string) (*ports.Response, error)

	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeTransport) Do(_ context.Context, req *ports.Request, tok *oauth2.Token) (*ports.Response, error) {
	token := ""
	if tok != nil {
		token = tok.AccessToken
	}
	body := ""
	if req.Body != nil {
		rc, err := req.Body()
		if err != nil {
			return nil, err
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		body = string(b)
	}
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{
		Path:      req.Path,
		Kind:      req.Kind,
		Token:     token,
		RequestID: req.Header.Get(RequestIDHeader),
		Body:      body,
	})
	f.mu.Unlock()
	return f.handler(req, token)
}

func (f *fakeTransport) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// fakeExchanger hands out tokens named by next and counts calls.
type fakeExchanger struct {
	calls atomic.Int32
	delay time.Duration
	next  func(n int32) (*oauth2.Token, error)
}

func (f *fakeExchanger) Exchange(ctx context.Context) (*oauth2.Token, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.next(n)
}

func bearer(s string) *oauth2.Token {
	return &oauth2.Token{AccessToken: s, TokenType: "Bearer", Expiry: time.Now().Add(30 * time.Minute)}
}

func respond(code int) *ports.Response {
	return &ports.Response{StatusCode: code, Header: http.Header{}}
}

// acceptOnly returns a handler that accepts exactly token and rejects everything else.
func acceptOnly(token string) func(*ports.Request, string) (*ports.Response, error) {
	return func(_ *ports.Request, got string) (*ports.Response, error) {
		if got == token {
			return respond(http.StatusOK), nil
		}
		return respond(http.StatusUnauthorized), nil
	}
}
