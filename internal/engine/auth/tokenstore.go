package auth

import "sync"

// TokenStore hands refresh tokens from the OAuth callback to the polling
// login page, keyed by session id. Tokens are read once and removed.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]string)}
}

func (s *TokenStore) Store(sessionID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
}

func (s *TokenStore) Get(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[sessionID]
	return tok, ok
}

// Take returns and removes the token for a session.
func (s *TokenStore) Take(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[sessionID]
	if ok {
		delete(s.tokens, sessionID)
	}
	return tok, ok
}
