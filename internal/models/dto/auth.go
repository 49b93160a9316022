package dto

import "github.com/edupost/edupost-client/internal/models"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the backend.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type RegisterRequest struct {
	Name     string       `json:"name"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Roles    models.Roles `json:"roles"`
}

// UserPatch is a partial user update; nil fields are left untouched.
type UserPatch struct {
	Name     *string      `json:"name,omitempty"`
	Username *string      `json:"username,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Roles    models.Roles `json:"roles,omitempty"`
}
