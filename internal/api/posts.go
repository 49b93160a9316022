package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
)

// ListPosts fetches one page of posts, optionally filtered by search term and author.
func (c *Client) ListPosts(ctx context.Context, q dto.PostQuery) ([]models.Post, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(orDefault(q.Page, 1)))
	query.Set("limit", strconv.Itoa(orDefault(q.Limit, 10)))
	if search := strings.TrimSpace(q.Search); search != "" {
		query.Set("search", search)
	}
	if q.AuthorID != "" {
		query.Set("authorId", q.AuthorID)
	}
	var out dto.PostPage
	if err := c.do(ctx, http.MethodGet, "/posts", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SearchPosts matches term against post titles and content.
func (c *Client) SearchPosts(ctx context.Context, term string, page, limit int) ([]models.Post, error) {
	query := url.Values{}
	query.Set("query", term)
	query.Set("page", strconv.Itoa(orDefault(page, 1)))
	query.Set("limit", strconv.Itoa(orDefault(limit, 10)))
	var out dto.PostPage
	if err := c.do(ctx, http.MethodGet, "/posts/search", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetPost(ctx context.Context, id int64) (models.Post, error) {
	var out models.Post
	err := c.do(ctx, http.MethodGet, postPath(id), nil, nil, &out)
	return out, err
}

// CreatePost publishes a post. The backend only accepts this from teachers.
func (c *Client) CreatePost(ctx context.Context, input dto.PostInput) error {
	return c.do(ctx, http.MethodPost, "/posts", nil, input, nil)
}

func (c *Client) UpdatePost(ctx context.Context, id int64, input dto.PostInput) error {
	return c.do(ctx, http.MethodPut, postPath(id), nil, input, nil)
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil, nil)
}

func postPath(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}
