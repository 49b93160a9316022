package session

import (
	"context"
	"errors"
	"log"

	"github.com/edupost/edupost-client/internal/storage"
)

// tokenStore wraps a storage.TokenStore so that storage failures are logged
// and read as "no token" instead of reaching callers.
type tokenStore struct {
	backend storage.TokenStore
	logger  *log.Logger
}

func (t tokenStore) load(ctx context.Context) string {
	token, err := t.backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.logger.Printf("session: read stored token: %v", err)
		}
		return ""
	}
	return token
}

func (t tokenStore) save(ctx context.Context, token string) {
	if err := t.backend.Save(ctx, token); err != nil {
		t.logger.Printf("session: persist token: %v", err)
	}
}

func (t tokenStore) clear(ctx context.Context) {
	if err := t.backend.Clear(ctx); err != nil {
		t.logger.Printf("session: clear stored token: %v", err)
	}
}

// Token implements api.TokenSource by reading the persisted token per request.
func (t tokenStore) Token(ctx context.Context) string {
	return t.load(ctx)
}
