// internal/domain/models/share.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission is the level of a sharing grant.
type Permission string

const (
	PermissionView Permission = "VIEW"
	PermissionEdit Permission = "EDIT"
)

// IsValid reports whether p is VIEW or EDIT.
func (p Permission) IsValid() bool {
	return p == PermissionView || p == PermissionEdit
}

// Share grants one user access to a note or task owned by someone else.
// There is at most one share per (scope_type, scope_id, user_id).
type Share struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ScopeType  ScopeType          `bson:"scope_type" json:"scope_type"`
	ScopeID    primitive.ObjectID `bson:"scope_id" json:"scope_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Permission Permission         `bson:"permission" json:"permission"`
	SharedBy   primitive.ObjectID `bson:"shared_by" json:"shared_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
