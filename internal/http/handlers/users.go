package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edupost/edupost-client/internal/http/respond"
	"github.com/edupost/edupost-client/internal/middleware"
	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/storage"
)

// UserHandler serves user lookups for any signed-in caller and account
// management for teachers. Mount it behind middleware.Authenticate.
type UserHandler struct {
	store storage.UserStore
}

func NewUserHandler(store storage.UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// Register attaches user routes to the router.
func (h *UserHandler) Register(r chi.Router) {
	teacher := middleware.RequireRole(models.RoleTeacher)

	r.Get("/user/email/{email}", h.handleFindByEmail)
	r.Get("/user/{id}", h.handleFindByID)
	r.With(teacher).Get("/user", h.handleList)
	r.With(teacher).Post("/user", h.handleCreate)
	r.With(teacher).Patch("/user/{id}", h.handleUpdate)
	r.With(teacher).Delete("/user/{id}", h.handleDelete)
}

func (h *UserHandler) handleFindByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.storeError(w, "find user", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleFindByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, "find user", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	users, err := h.store.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.storeError(w, "list users", err)
		return
	}
	respond.List(w, http.StatusOK, "users", users)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, status, err := newUser(req)
	if err != nil {
		respond.Error(w, status, err.Error())
		return
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		h.storeError(w, "create user", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch dto.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	changes, err := userChanges(patch)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.store.UpdateUser(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		h.storeError(w, "update user", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, "delete user", err)
		return
	}
	respond.NoContent(w)
}

func (h *UserHandler) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "email or username already in use")
	default:
		log.Printf("%s error: %v", op, err)
		respond.Error(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func userChanges(patch dto.UserPatch) (storage.UserChanges, error) {
	var changes storage.UserChanges
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return changes, errors.New("name must not be empty")
		}
		changes.Name = &name
	}
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return changes, errors.New("username must not be empty")
		}
		changes.Username = &username
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := validateEmail(email); err != nil {
			return changes, err
		}
		changes.Email = &email
	}
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return changes, err
		}
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return changes, err
		}
		changes.PasswordHash = &hash
	}
	if len(patch.Roles) > 0 {
		roles, err := normalizeRoles(patch.Roles)
		if err != nil {
			return changes, err
		}
		changes.Roles = roles
	}
	return changes, nil
}
