package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/edupost/edupost-client/internal/storage"
)

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewTokenStore(path, "@edupost/token")

	if _, err := store.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := store.Save(ctx, "T"); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened := NewTokenStore(path, "@edupost/token")
	token, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if token != "T" {
		t.Fatalf("expected T, got %q", token)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clearing twice should succeed: %v", err)
	}
}

func TestKeysShareFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	a := NewTokenStore(path, "a")
	b := NewTokenStore(path, "b")

	if err := a.Save(ctx, "one"); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := b.Save(ctx, "two"); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := a.Clear(ctx); err != nil {
		t.Fatalf("clear a: %v", err)
	}
	token, err := b.Load(ctx)
	if err != nil || token != "two" {
		t.Fatalf("expected b to survive, got %q %v", token, err)
	}
}

func TestCorruptFileReportsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := NewTokenStore(path, "k").Load(context.Background())
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
