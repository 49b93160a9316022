package models

import "time"

// Author is the public slice of a user embedded in posts.
type Author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Post is a blog entry written by a teacher.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    Author    `json:"author_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// AuthorOf projects a user onto the fields embedded in a post.
func AuthorOf(u User) Author {
	return Author{ID: u.ID, Name: u.Name, Username: u.Username, Email: u.Email}
}

// EditableBy reports whether u may edit or delete the post: teachers always,
// otherwise only the author.
func (p Post) EditableBy(u *User) bool {
	if u == nil {
		return false
	}
	return u.HasRole(RoleTeacher) || (u.ID != "" && u.ID == p.Author.ID)
}
