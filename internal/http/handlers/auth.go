package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupost/edupost-client/internal/auth"
	"github.com/edupost/edupost-client/internal/http/respond"
	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/storage"
)

// AuthHandler owns the public register/login endpoints.
type AuthHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
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
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "email or username already in use")
		default:
			log.Printf("create user error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("login failed: error fetching user %s: %v", email, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{AccessToken: token})
}

// newUser validates a registration and returns the user to store, or the
// status and error to report.
func newUser(req dto.RegisterRequest) (models.User, int, error) {
	name := strings.TrimSpace(req.Name)
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if name == "" || username == "" || email == "" {
		return models.User{}, http.StatusBadRequest, errors.New("name, username, and email are required")
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, http.StatusBadRequest, err
	}
	if err := validatePassword(req.Password); err != nil {
		return models.User{}, http.StatusBadRequest, err
	}
	roles, err := normalizeRoles(req.Roles)
	if err != nil {
		return models.User{}, http.StatusBadRequest, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return models.User{}, http.StatusInternalServerError, errors.New("failed to hash password")
	}
	return models.User{
		Name:         name,
		Username:     username,
		Email:        email,
		Roles:        roles,
		PasswordHash: hash,
	}, http.StatusOK, nil
}
