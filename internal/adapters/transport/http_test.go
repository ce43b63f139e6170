package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/secureops/secureops-client/internal/errors"
	"github.com/secureops/secureops-client/internal/ports"
)

func newTransport(t *testing.T, srv *httptest.Server, timeout time.Duration) *HTTPTransport {
	t.Helper()
	tr, err := NewHTTPTransport(HTTPTransportOptions{
		BaseURL: srv.URL + "/api/v1/",
		Timeout: timeout,
	})
	require.NoError(t, err)
	return tr
}

func TestHTTPTransport_AttachesBearerAndQuery(t *testing.T) {
	var gotAuth, gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("upload_id")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"detail":"short and stout"}`))
	}))
	defer srv.Close()

	tr := newTransport(t, srv, time.Second)
	resp, err := tr.Do(context.Background(), &ports.Request{
		Path:  "/results/summary",
		Query: url.Values{"upload_id": {"job-1"}},
	}, &oauth2.Token{AccessToken: "abc", TokenType: "Bearer"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "/api/v1/results/summary", gotPath)
	assert.Equal(t, "job-1", gotQuery)
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"detail":"short and stout"}`, string(resp.Body))
}

func TestHTTPTransport_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := newTransport(t, srv, time.Second).Do(context.Background(), &ports.Request{Path: "health"}, nil)
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestHTTPTransport_CarriesRefreshCookie(t *testing.T) {
	var sawCookie atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     "refresh_token",
			Value:    "rotating-1",
			HttpOnly: true,
			MaxAge:   7 * 24 * 3600,
		})
		_, _ = w.Write([]byte(`{"access_token":"a","token_type":"bearer"}`))
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("refresh_token")
		if err == nil && c.Value == "rotating-1" {
			sawCookie.Store(true)
		}
		_, _ = w.Write([]byte(`{"access_token":"b"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := newTransport(t, srv, time.Second)
	ctx := context.Background()

	_, err := tr.Do(ctx, &ports.Request{Method: http.MethodPost, Path: "/auth/login", Kind: ports.KindLogin}, nil)
	require.NoError(t, err)
	_, err = tr.Do(ctx, &ports.Request{Method: http.MethodPost, Path: "/auth/refresh", Kind: ports.KindRefresh}, nil)
	require.NoError(t, err)

	assert.True(t, sawCookie.Load(), "refresh call should carry the cookie set by login")
}

func TestHTTPTransport_BodyAndContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	resp, err := newTransport(t, srv, time.Second).Do(context.Background(), &ports.Request{
		Method:      http.MethodPost,
		Path:        "/auth/signup",
		ContentType: "application/json",
		Body: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(`{"email":"a@b.com"}`)), nil
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@b.com"}`, string(resp.Body))
}

func TestHTTPTransport_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTransport(t, srv, 50*time.Millisecond).Do(context.Background(), &ports.Request{Path: "/slow"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err), "got %v", err)
	assert.False(t, apperrors.IsUnauthorized(err))
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tr := newTransport(t, srv, time.Second)
	srv.Close()

	_, err := tr.Do(context.Background(), &ports.Request{Path: "/health"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestHTTPTransport_CallerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTransport(t, srv, 5*time.Second).Do(ctx, &ports.Request{Path: "/wait"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCanceled(err), "got %v", err)
}

func TestNewHTTPTransport_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPTransport(HTTPTransportOptions{BaseURL: "  "})
	require.Error(t, err)
}
