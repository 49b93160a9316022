package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edupost/edupost-client/internal/http/respond"
	"github.com/edupost/edupost-client/internal/middleware"
	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/storage"
)

// PostHandler serves the posts API. Mount it behind middleware.Authenticate.
type PostHandler struct {
	posts storage.PostStore
	users storage.UserStore
}

func NewPostHandler(posts storage.PostStore, users storage.UserStore) *PostHandler {
	return &PostHandler{posts: posts, users: users}
}

// Register attaches post routes to the router.
func (h *PostHandler) Register(r chi.Router) {
	teacher := middleware.RequireRole(models.RoleTeacher)

	r.Get("/posts", h.handleList)
	r.Get("/posts/search", h.handleSearch)
	r.Get("/posts/{id}", h.handleGet)
	r.Put("/posts/{id}", h.handleUpdate)
	r.With(teacher).Post("/posts", h.handleCreate)
	r.With(teacher).Delete("/posts/{id}", h.handleDelete)
}

func (h *PostHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	query := dto.PostQuery{
		Page:     page,
		Limit:    limit,
		Search:   r.URL.Query().Get("search"),
		AuthorID: r.URL.Query().Get("authorId"),
	}
	h.list(w, r, query)
}

func (h *PostHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	h.list(w, r, dto.PostQuery{Page: page, Limit: limit, Search: r.URL.Query().Get("query")})
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request, query dto.PostQuery) {
	posts, err := h.posts.ListPosts(r.Context(), query)
	if err != nil {
		h.storeError(w, "list posts", err)
		return
	}
	respond.List(w, http.StatusOK, "posts", posts)
}

func (h *PostHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		h.storeError(w, "get post", err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

func (h *PostHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := postInput(w, r)
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	author, err := h.users.FindByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "author no longer exists")
			return
		}
		h.storeError(w, "create post", err)
		return
	}
	created, err := h.posts.CreatePost(r.Context(), models.Post{
		Title:   input.Title,
		Content: input.Content,
		Author:  models.AuthorOf(author),
	})
	if err != nil {
		h.storeError(w, "create post", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// handleUpdate allows teachers and the post's author.
func (h *PostHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	input, ok := postInput(w, r)
	if !ok {
		return
	}
	existing, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		h.storeError(w, "update post", err)
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	caller := &models.User{ID: claims.Subject, Roles: models.Roles(claims.Roles)}
	if !existing.EditableBy(caller) {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	updated, err := h.posts.UpdatePost(r.Context(), id, input)
	if err != nil {
		h.storeError(w, "update post", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *PostHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	if err := h.posts.DeletePost(r.Context(), id); err != nil {
		h.storeError(w, "delete post", err)
		return
	}
	respond.NoContent(w)
}

func (h *PostHandler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "post not found")
		return
	}
	log.Printf("%s error: %v", op, err)
	respond.Error(w, http.StatusInternalServerError, "failed to "+op)
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respond.Error(w, http.StatusBadRequest, "invalid post id")
		return 0, false
	}
	return id, true
}

func postInput(w http.ResponseWriter, r *http.Request) (dto.PostInput, bool) {
	var input dto.PostInput
	if err := decodeJSON(w, r, &input); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return input, false
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		respond.Error(w, http.StatusBadRequest, "title and content are required")
		return input, false
	}
	return input, true
}
