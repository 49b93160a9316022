package storage

import (
	"context"
	"errors"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// TokenStore persists the single bearer token the client holds.
// Load returns ErrNotFound when no token is stored.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// UserStore captures the user persistence the devserver needs.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, patch UserChanges) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserChanges is a validated partial update; nil fields are left untouched.
type UserChanges struct {
	Name         *string
	Username     *string
	Email        *string
	PasswordHash *string
	Roles        models.Roles
}

// PostStore captures the post persistence the devserver needs.
type PostStore interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	GetPost(ctx context.Context, id int64) (models.Post, error)
	ListPosts(ctx context.Context, query dto.PostQuery) ([]models.Post, error)
	UpdatePost(ctx context.Context, id int64, input dto.PostInput) (models.Post, error)
	DeletePost(ctx context.Context, id int64) error
}
