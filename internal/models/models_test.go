package models

import (
	"encoding/json"
	"testing"
)

func TestRolesAcceptsStringOrArray(t *testing.T) {
	var single struct {
		Roles Roles `json:"roles"`
	}
	if err := json.Unmarshal([]byte(`{"roles":"STUDENT"}`), &single); err != nil {
		t.Fatalf("unmarshal single: %v", err)
	}
	if len(single.Roles) != 1 || single.Roles[0] != RoleStudent {
		t.Fatalf("unexpected roles %v", single.Roles)
	}

	var many struct {
		Roles Roles `json:"roles"`
	}
	if err := json.Unmarshal([]byte(`{"roles":["STUDENT","TEACHER"]}`), &many); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if !many.Roles.Has(RoleTeacher) || !many.Roles.Has("student") {
		t.Fatalf("unexpected roles %v", many.Roles)
	}

	if err := json.Unmarshal([]byte(`{"roles":42}`), &many); err == nil {
		t.Fatal("expected error for numeric roles")
	}
}

func TestRolesMarshalSingleAsString(t *testing.T) {
	out, err := json.Marshal(Roles{RoleStudent})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"STUDENT"` {
		t.Fatalf("expected bare string, got %s", out)
	}
	out, err = json.Marshal(Roles{RoleStudent, RoleTeacher})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `["STUDENT","TEACHER"]` {
		t.Fatalf("expected array, got %s", out)
	}
}

func TestParseRoles(t *testing.T) {
	roles := ParseRoles(" student, TEACHER ,student,, ")
	if len(roles) != 2 || roles[0] != RoleStudent || roles[1] != RoleTeacher {
		t.Fatalf("unexpected roles %v", roles)
	}
}

func TestHasRoleOnNilUser(t *testing.T) {
	var u *User
	if u.HasRole(RoleTeacher) {
		t.Fatal("nil user must hold no roles")
	}
}

func TestPostEditableBy(t *testing.T) {
	post := Post{ID: 1, Author: Author{ID: "author"}}
	teacher := &User{ID: "t", Roles: Roles{RoleTeacher}}
	author := &User{ID: "author", Roles: Roles{RoleStudent}}
	other := &User{ID: "other", Roles: Roles{RoleStudent}}

	if !post.EditableBy(teacher) {
		t.Fatal("teacher should edit any post")
	}
	if !post.EditableBy(author) {
		t.Fatal("author should edit own post")
	}
	if post.EditableBy(other) || post.EditableBy(nil) {
		t.Fatal("non-author student must not edit")
	}
}

func TestFilterByRole(t *testing.T) {
	users := []User{
		{ID: "1", Roles: Roles{RoleStudent}},
		{ID: "2", Roles: Roles{RoleTeacher}},
		{ID: "3", Roles: Roles{RoleStudent, RoleTeacher}},
	}
	teachers := FilterByRole(users, RoleTeacher)
	if len(teachers) != 2 || teachers[0].ID != "2" || teachers[1].ID != "3" {
		t.Fatalf("unexpected teachers %v", teachers)
	}
}
