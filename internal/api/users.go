package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
)

// ListUsers fetches one page of users. Teachers only.
func (c *Client) ListUsers(ctx context.Context, page, limit int) ([]models.User, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(orDefault(page, 1)))
	query.Set("limit", strconv.Itoa(orDefault(limit, 10)))
	var out dto.UserPage
	if err := c.do(ctx, http.MethodGet, "/user", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListUsersByRole fetches a page of users and keeps those holding role.
func (c *Client) ListUsersByRole(ctx context.Context, role string, page, limit int) ([]models.User, error) {
	users, err := c.ListUsers(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return models.FilterByRole(users, role), nil
}

// CreateUser creates another account on behalf of a teacher.
func (c *Client) CreateUser(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPost, "/user", nil, req, &out)
	return out, err
}

// UpdateUser patches the given fields of a user.
func (c *Client) UpdateUser(ctx context.Context, id string, patch dto.UserPatch) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPatch, "/user/"+url.PathEscape(id), nil, patch, &out)
	return out, err
}

// DeleteUser removes a user account. Teachers only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/user/"+url.PathEscape(id), nil, nil, nil)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
