package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
)

// Login exchanges credentials for an access token. The response is returned
// as decoded; callers check AccessToken.
func (c *Client) Login(ctx context.Context, email, password string) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, dto.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates an account. It does not sign the user in.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", nil, req, nil)
}

// FindUserByEmail looks a user up by email address.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/user/email/"+url.PathEscape(email), nil, nil, &out)
	return out, err
}

// FindUserByID looks a user up by identifier.
func (c *Client) FindUserByID(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}
