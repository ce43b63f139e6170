package service

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore holds the process's access credential in memory. It is never
// persisted; a new process starts empty until bootstrap runs.
//
// Every write bumps a version. Writers that raced a newer write use the
// version to avoid overwriting or clearing a credential they did not see.
type TokenStore struct {
	mu      sync.RWMutex
	tok     *oauth2.Token
	version uint64
}

// NewTokenStore returns an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Set replaces the credential. A nil token clears it.
func (s *TokenStore) Set(tok *oauth2.Token) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
	s.version++
	return s.version
}

// Get returns the current credential, or nil.
func (s *TokenStore) Get() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok
}

// Load returns the current credential together with its version.
func (s *TokenStore) Load() (*oauth2.Token, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok, s.version
}

// Clear removes the credential.
func (s *TokenStore) Clear() {
	s.Set(nil)
}

// CompareAndSet stores tok only if no write happened since version.
func (s *TokenStore) CompareAndSet(version uint64, tok *oauth2.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.tok = tok
	s.version++
	return true
}

// Invalidate clears the credential if it is still the one seen at version.
// It reports whether the store is empty afterwards.
func (s *TokenStore) Invalidate(version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == version && s.tok != nil {
		s.tok = nil
		s.version++
	}
	return s.tok == nil
}
