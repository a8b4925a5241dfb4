package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseScopeType(t *testing.T) {
	tests := []struct {
		in      string
		def     ScopeType
		want    ScopeType
		wantErr bool
	}{
		{"", ScopeNote, ScopeNote, false},
		{"", ScopeTask, ScopeTask, false},
		{"note", ScopeTask, ScopeNote, false},
		{"task", ScopeNote, ScopeTask, false},
		{"NOTE", ScopeNote, "", true},
		{"board", ScopeNote, "", true},
	}
	for _, tc := range tests {
		got, err := ParseScopeType(tc.in, tc.def)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseScopeType(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseScopeType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestScopeKeyString(t *testing.T) {
	if got := Key(ScopeTask, "abc").String(); got != "task:abc" {
		t.Errorf("String() = %q, want task:abc", got)
	}
}

func TestIsValidTaskStatus(t *testing.T) {
	for _, s := range AllTaskStatuses {
		if !IsValidTaskStatus(string(s)) {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []string{"", "todo", "BLOCKED", "DONE "} {
		if IsValidTaskStatus(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestPermissionIsValid(t *testing.T) {
	tests := map[Permission]bool{
		PermissionView: true,
		PermissionEdit: true,
		"":             false,
		"ADMIN":        false,
		"view":         false,
	}
	for p, want := range tests {
		if got := p.IsValid(); got != want {
			t.Errorf("Permission(%q).IsValid() = %v, want %v", p, got, want)
		}
	}
}

func TestUserPublic(t *testing.T) {
	id := primitive.NewObjectID()
	u := User{ID: id, FullName: "Ada Lovelace", Email: "ada@example.com", AvatarURL: "https://a/ada.png"}
	got := u.Public()
	want := PublicUser{ID: id.Hex(), Name: "Ada Lovelace", Email: "ada@example.com", Avatar: "https://a/ada.png"}
	if got != want {
		t.Errorf("Public() = %+v, want %+v", got, want)
	}
}
