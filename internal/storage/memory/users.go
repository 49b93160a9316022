package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/storage"
)

var _ storage.UserStore = (*UserStore)(nil)

// UserStore keeps users in memory, keyed by a generated UUID.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	posts *PostStore
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

// CascadeTo makes user renames and deletions visible in posts authored by the user.
func (s *UserStore) CascadeTo(posts *PostStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
}

// CreateUser assigns an ID and inserts the user. Email and username are unique,
// compared case-insensitively.
func (s *UserStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts("", user.Email, user.Username) {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return user, nil
}

func (s *UserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// ListUsers returns users ordered by creation time, one page at a time. Pages start at 1.
func (s *UserStore) ListUsers(_ context.Context, page, limit int) ([]models.User, error) {
	s.mu.RLock()
	all := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		all = append(all, user)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return paginate(all, page, limit), nil
}

func (s *UserStore) UpdateUser(_ context.Context, id string, patch storage.UserChanges) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	email, username := user.Email, user.Username
	if patch.Email != nil {
		email = *patch.Email
	}
	if patch.Username != nil {
		username = *patch.Username
	}
	if s.conflicts(id, email, username) {
		return models.User{}, storage.ErrAlreadyExists
	}

	user.Email, user.Username = email, username
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if len(patch.Roles) > 0 {
		user.Roles = patch.Roles
	}
	s.users[id] = user
	if s.posts != nil {
		s.posts.refreshAuthor(models.AuthorOf(user))
	}
	return user, nil
}

// DeleteUser removes the user and, when cascading, the posts they authored.
func (s *UserStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	if s.posts != nil {
		s.posts.deleteByAuthor(id)
	}
	return nil
}

func (s *UserStore) conflicts(selfID, email, username string) bool {
	for id, existing := range s.users {
		if id == selfID {
			continue
		}
		if strings.EqualFold(existing.Email, email) || strings.EqualFold(existing.Username, username) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
