package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Roles        Roles     `json:"roles"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// HasRole reports whether the user holds role. A nil user holds nothing.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return u.Roles.Has(role)
}

// FilterByRole returns the users holding role, preserving order.
func FilterByRole(users []User, role string) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.Roles.Has(role) {
			out = append(out, u)
		}
	}
	return out
}
