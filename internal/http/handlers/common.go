package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/edupost/edupost-client/internal/models"
)

const maxPageSize = 100

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(dst)
}

// pageParams reads page and limit with defaults of 1 and 10.
func pageParams(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return errors.New("email must be a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(strings.TrimSpace(password)) < 6 || !utf8.ValidString(password) {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// normalizeRoles upper-cases roles, defaults to STUDENT and rejects unknown tags.
func normalizeRoles(roles models.Roles) (models.Roles, error) {
	if len(roles) == 0 {
		return models.Roles{models.RoleStudent}, nil
	}
	out := make(models.Roles, 0, len(roles))
	for _, role := range roles {
		role = strings.ToUpper(strings.TrimSpace(role))
		if !models.ValidRole(role) {
			return nil, errors.New("roles must be STUDENT or TEACHER")
		}
		if !out.Has(role) {
			out = append(out, role)
		}
	}
	return out, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
