package memory

import (
	"context"
	"sync"

	"github.com/edupost/edupost-client/internal/storage"
)

var _ storage.TokenStore = (*TokenStore)(nil)

// TokenStore holds the token in process memory.
type TokenStore struct {
	mu    sync.Mutex
	token string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *TokenStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", storage.ErrNotFound
	}
	return s.token, nil
}

func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
