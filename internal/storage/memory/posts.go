package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/storage"
)

var _ storage.PostStore = (*PostStore)(nil)

// PostStore keeps posts in memory with sequential IDs.
type PostStore struct {
	mu     sync.RWMutex
	posts  map[int64]models.Post
	nextID int64
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[int64]models.Post), nextID: 1}
}

func (s *PostStore) CreatePost(_ context.Context, post models.Post) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	post.ID = s.nextID
	post.CreatedAt = now
	post.UpdatedAt = now
	s.nextID++
	s.posts[post.ID] = post
	return post, nil
}

func (s *PostStore) GetPost(_ context.Context, id int64) (models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, storage.ErrNotFound
	}
	return post, nil
}

// ListPosts returns newest posts first, filtered by author and by a
// case-insensitive match on title or content.
func (s *PostStore) ListPosts(_ context.Context, query dto.PostQuery) ([]models.Post, error) {
	needle := strings.ToLower(strings.TrimSpace(query.Search))

	s.mu.RLock()
	matched := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if query.AuthorID != "" && post.Author.ID != query.AuthorID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(post.Title), needle) &&
			!strings.Contains(strings.ToLower(post.Content), needle) {
			continue
		}
		matched = append(matched, post)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, query.Page, query.Limit), nil
}

func (s *PostStore) UpdatePost(_ context.Context, id int64, input dto.PostInput) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, storage.ErrNotFound
	}
	post.Title = input.Title
	post.Content = input.Content
	post.UpdatedAt = time.Now().UTC()
	s.posts[id] = post
	return post, nil
}

func (s *PostStore) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *PostStore) refreshAuthor(author models.Author) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, post := range s.posts {
		if post.Author.ID == author.ID {
			post.Author = author
			s.posts[id] = post
		}
	}
}

func (s *PostStore) deleteByAuthor(authorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, post := range s.posts {
		if post.Author.ID == authorID {
			delete(s.posts, id)
		}
	}
}
