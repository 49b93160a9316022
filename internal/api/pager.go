package api

import (
	"context"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
)

// PostPager walks GET /posts page by page. It stops after a page shorter
// than the limit, or a page that repeats the previous one, which is what a
// backend that ignores the page parameter returns.
type PostPager struct {
	client  *Client
	query   dto.PostQuery
	next    int
	hasMore bool
	lastID  int64
}

// NewPostPager starts at page 1 with the query's search, author and limit.
func (c *Client) NewPostPager(query dto.PostQuery) *PostPager {
	query.Limit = orDefault(query.Limit, 10)
	return &PostPager{client: c, query: query, next: 1, hasMore: true}
}

// HasMore reports whether Next may still return posts.
func (p *PostPager) HasMore() bool {
	return p.hasMore
}

// Next fetches the following page. A failed fetch leaves the position unchanged.
func (p *PostPager) Next(ctx context.Context) ([]models.Post, error) {
	if !p.hasMore {
		return nil, nil
	}
	q := p.query
	q.Page = p.next
	posts, err := p.client.ListPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(posts) > 0 && p.next > 1 && posts[0].ID == p.lastID {
		p.hasMore = false
		return nil, nil
	}
	p.next++
	p.hasMore = len(posts) >= p.query.Limit
	if len(posts) > 0 {
		p.lastID = posts[0].ID
	}
	return posts, nil
}

// Reset rewinds to page 1 with a new search term.
func (p *PostPager) Reset(search string) {
	p.query.Search = search
	p.next = 1
	p.hasMore = true
	p.lastID = 0
}
