package models

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
)

// Roles is a set of role tags. On the wire it is either a single string or an
// array of strings.
type Roles []string

// Has reports whether role is present, ignoring case.
func (r Roles) Has(role string) bool {
	for _, candidate := range r {
		if strings.EqualFold(candidate, role) {
			return true
		}
	}
	return false
}

// ParseRoles splits a comma separated list into normalized role tags.
func ParseRoles(input string) Roles {
	var out Roles
	for _, part := range strings.Split(input, ",") {
		trimmed := strings.ToUpper(strings.TrimSpace(part))
		if trimmed != "" && !out.Has(trimmed) {
			out = append(out, trimmed)
		}
	}
	return out
}

// MarshalJSON encodes a single role as a bare string.
func (r Roles) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(r))
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (r *Roles) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*r = nil
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single == "" {
			*r = nil
			return nil
		}
		*r = Roles{single}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var many []string
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*r = Roles(many)
		return nil
	}
	return errors.New("roles must be a string or an array of strings")
}

// ValidRole reports whether role is one of the known tags.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleTeacher
}
