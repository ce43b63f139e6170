// Package workflowtest provides an in-process SecureOps API for end-to-end
// tests of the client: auth with a refresh cookie, uploads, status polling
// and results.
package workflowtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/secureops/secureops-client/internal/testutil"
)

const (
	// BasePath is the API prefix the server mounts its routes under.
	BasePath = "/api/v1"

	refreshCookie = "refresh_token"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	// AccessTTL is the lifetime stamped into issued access tokens (default 15m).
	AccessTTL time.Duration
	// PollsUntilDone is how many status queries a job stays PROCESSING
	// before it finishes (default 2).
	PollsUntilDone int
	// FailJobs makes every job finish FAILED instead of COMPLETED.
	FailJobs bool
	// Report is the body served by the report endpoint.
	Report []byte
}

type account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	password  string
}

type upload struct {
	ID       string
	Category string
	FileName string
	Polls    int
}

// Server is a fake backend. Accessors are safe for concurrent use.
type Server struct {
	srv  *httptest.Server
	opts ServerOptions

	mu       sync.Mutex
	accounts map[string]*account
	access   map[string]string
	refresh  map[string]string
	uploads  map[string]*upload
	hits     map[string]int
}

// NewServer starts a fake backend that is closed with the test.
func NewServer(t testing.TB, opts ServerOptions) *Server {
	t.Helper()
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.PollsUntilDone <= 0 {
		opts.PollsUntilDone = 2
	}
	if opts.Report == nil {
		opts.Report = []byte("%PDF-1.4\n% secureops report\n%%EOF\n")
	}

	s := &Server{
		opts:     opts,
		accounts: make(map[string]*account),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		uploads:  make(map[string]*upload),
		hits:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/health", s.handleHealth)
	mux.HandleFunc("POST "+BasePath+"/auth/signup", s.handleSignup)
	mux.HandleFunc("POST "+BasePath+"/auth/login", s.handleLogin)
	mux.HandleFunc("POST "+BasePath+"/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST "+BasePath+"/auth/logout", s.handleLogout)
	mux.HandleFunc("GET "+BasePath+"/auth/me", s.authed(s.handleMe))
	mux.HandleFunc("POST "+BasePath+"/videos/upload", s.authed(s.handleUpload))
	mux.HandleFunc("GET "+BasePath+"/videos/{id}/status", s.authed(s.handleStatus))
	mux.HandleFunc("GET "+BasePath+"/results/{kind}", s.authed(s.handleResults))

	s.srv = httptest.NewServer(s.count(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API base URL including BasePath.
func (s *Server) URL() string {
	return s.srv.URL + BasePath
}

// AddAccount registers an active account.
func (s *Server) AddAccount(email, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(email, password, role)
}

// ExpireAccessTokens invalidates every issued access token, as if they had
// all passed their expiry.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.access)
}

// RevokeRefreshTokens invalidates every refresh cookie.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// Hits returns how often method and path (relative to BasePath) were requested.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Upload returns the recorded upload for id.
func (s *Server) Upload(id string) (category, fileName string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return "", "", false
	}
	return u.Category, u.FileName, true
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+strings.TrimPrefix(r.URL.Path, BasePath)]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) addLocked(email, password, role string) *account {
	a := &account{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
		password:  password,
	}
	s.accounts[strings.ToLower(email)] = a
	return a
}

func (s *Server) issueLocked(a *account) string {
	tok := testutil.AccessToken(a.Email, a.Role, time.Now().Add(s.opts.AccessTTL))
	// Tokens minted in the same instant must still differ.
	tok += uuid.NewString()[:8]
	s.access[tok] = strings.ToLower(a.Email)
	return tok
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		email, known := s.access[raw]
		a := s.accounts[email]
		s.mu.Unlock()
		if !ok || !known || a == nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, a)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"api":       "ok",
		"database":  "ok",
		"auth":      "ok",
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000000") + "Z",
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func decodeCredentials(r *http.Request) (credentials, error) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, err
	}
	if in.Email == "" || in.Password == "" {
		return in, errors.New("missing fields")
	}
	return in, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCredentials(r)
	if err != nil {
		writeValidation(w, "email", "field required")
		return
	}
	if in.Role == "" {
		in.Role = "viewer"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, s.addLocked(in.Email, in.Password, in.Role))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCredentials(r)
	if err != nil {
		writeValidation(w, "email", "field required")
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[strings.ToLower(in.Email)]
	if !ok || a.password != in.Password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	rt := uuid.NewString()
	s.refresh[rt] = strings.ToLower(a.Email)
	tok := s.issueLocked(a)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: rt, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok, "token_type": "bearer"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil || c.Value == "" {
		writeDetail(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}

	s.mu.Lock()
	email, ok := s.refresh[c.Value]
	a := s.accounts[email]
	if !ok || a == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	tok := s.issueLocked(a)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"access_token": tok, "token_type": "bearer"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(refreshCookie); err == nil {
		s.mu.Lock()
		delete(s.refresh, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: "", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, a *account) {
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, _ *account) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed upload")
		return
	}
	category := r.FormValue("upload_type")
	if category != "image" && category != "pdf" && category != "video" {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid upload type '%s'. Must be 'image', 'pdf', or 'video'.", category))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) != 1 {
		writeDetail(w, http.StatusBadRequest, "Please upload exactly one file.")
		return
	}

	u := &upload{ID: uuid.NewString(), Category: category, FileName: files[0].Filename}
	s.mu.Lock()
	s.uploads[u.ID] = u
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"video_id": u.ID, "status": "PENDING", "filename": u.FileName})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ *account) {
	id := r.PathValue("id")
	s.mu.Lock()
	u, ok := s.uploads[id]
	status := ""
	if ok {
		u.Polls++
		status = s.statusLocked(u)
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"video_id": id, "status": status})
}

func (s *Server) statusLocked(u *upload) string {
	switch {
	case u.Polls < s.opts.PollsUntilDone:
		return "PROCESSING"
	case s.opts.FailJobs:
		return "FAILED"
	default:
		return "COMPLETED"
	}
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, _ *account) {
	id := r.URL.Query().Get("upload_id")
	s.mu.Lock()
	u, ok := s.uploads[id]
	done := ok && s.statusLocked(u) == "COMPLETED"
	s.mu.Unlock()
	if !done {
		writeDetail(w, http.StatusNotFound, "Results not found")
		return
	}

	switch r.PathValue("kind") {
	case "summary":
		writeJSON(w, http.StatusOK, map[string]any{
			"pipeline_status": "PASS",
			"accuracy":        0.94,
			"pass_threshold":  0.9,
			"total_samples":   3,
			"integrity_hash":  nil,
			"dataset":         u.FileName,
			"timestamp":       "2024-01-01T12:00:00",
			"violations":      map[string]int{"no_helmet": 1},
		})
	case "violations":
		writeJSON(w, http.StatusOK, []map[string]any{{
			"file_name":  u.FileName,
			"type":       "no_helmet",
			"severity":   "high",
			"confidence": 0.88,
			"timestamp":  "2024-01-01T12:00:01",
		}})
	case "proximity":
		writeJSON(w, http.StatusOK, []map[string]any{{
			"worker_id":   "W-1",
			"machine":     "press",
			"distance_px": 42.5,
			"risk":        "medium",
			"timestamp":   "2024-01-01T12:00:02",
		}})
	case "report":
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(s.opts.Report)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "missing"}},
	})
}
