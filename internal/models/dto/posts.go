package dto

import "github.com/edupost/edupost-client/internal/models"

type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostQuery filters GET /posts. Zero values are omitted from the query.
type PostQuery struct {
	Page     int
	Limit    int
	Search   string
	AuthorID string
}

// PostPage is the list envelope returned by the posts endpoints.
type PostPage struct {
	Data []models.Post `json:"data"`
}

// UserPage is the list envelope returned by GET /user.
type UserPage struct {
	Data []models.User `json:"data"`
}
