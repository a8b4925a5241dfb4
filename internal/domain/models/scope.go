// internal/domain/models/scope.go
package models

import "fmt"

// ScopeType identifies what kind of document a collaboration room is about.
type ScopeType string

const (
	ScopeNote ScopeType = "note"
	ScopeTask ScopeType = "task"
)

// AllScopeTypes lists every scope type in a stable order.
var AllScopeTypes = []ScopeType{ScopeNote, ScopeTask}

// IsValid reports whether s is a known scope type.
func (s ScopeType) IsValid() bool {
	return s == ScopeNote || s == ScopeTask
}

// ParseScopeType converts a wire value into a ScopeType. Empty input
// yields def so optional payload fields can fall back to a default.
func ParseScopeType(v string, def ScopeType) (ScopeType, error) {
	if v == "" {
		return def, nil
	}
	s := ScopeType(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown scope type %q", v)
	}
	return s, nil
}

// ScopeKey is the composite identity of one collaboration room.
type ScopeKey struct {
	Type ScopeType
	ID   string
}

// Key builds a ScopeKey.
func Key(t ScopeType, id string) ScopeKey {
	return ScopeKey{Type: t, ID: id}
}

func (k ScopeKey) String() string {
	return string(k.Type) + ":" + k.ID
}
