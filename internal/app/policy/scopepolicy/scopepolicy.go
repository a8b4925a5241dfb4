// internal/app/policy/scopepolicy/scopepolicy.go
package scopepolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OwnerLookup returns the owner of a note or task.
// It returns mongo.ErrNoDocuments when the document does not exist.
type OwnerLookup interface {
	OwnerID(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error)
}

// GrantLookup returns the permission a user holds on a scope.
// It returns mongo.ErrNoDocuments when there is no grant.
type GrantLookup interface {
	Permission(ctx context.Context, scope models.ScopeType, scopeID, userID primitive.ObjectID) (models.Permission, error)
}

// Gate answers access questions against the store on every call. Nothing
// is cached, so a revoked grant takes effect on the next check.
type Gate struct {
	owners map[models.ScopeType]OwnerLookup
	grants GrantLookup
}

// NewGate wires a Gate from the note and task owner lookups and the
// share store.
func NewGate(notes, tasks OwnerLookup, grants GrantLookup) *Gate {
	return &Gate{
		owners: map[models.ScopeType]OwnerLookup{
			models.ScopeNote: notes,
			models.ScopeTask: tasks,
		},
		grants: grants,
	}
}

// CanAccess reports whether userID owns the scope or holds any grant on it.
// Malformed ids and missing documents yield (false, nil); store failures
// are returned so callers can tell "denied" from "could not check".
func (g *Gate) CanAccess(ctx context.Context, scope models.ScopeType, userID, scopeID string) (bool, error) {
	perm, ok, err := g.resolve(ctx, scope, userID, scopeID)
	if err != nil || !ok {
		return false, err
	}
	return perm != "", nil
}

// CanEdit reports whether userID owns the scope or holds an EDIT grant.
func (g *Gate) CanEdit(ctx context.Context, scope models.ScopeType, userID, scopeID string) (bool, error) {
	perm, ok, err := g.resolve(ctx, scope, userID, scopeID)
	if err != nil || !ok {
		return false, err
	}
	return perm == models.PermissionEdit, nil
}

// resolve returns the effective permission. Owners are treated as EDIT.
// ok is false when the ids do not name an existing scope.
func (g *Gate) resolve(ctx context.Context, scope models.ScopeType, userID, scopeID string) (models.Permission, bool, error) {
	owners, known := g.owners[scope]
	if !known {
		return "", false, fmt.Errorf("scopepolicy: unknown scope type %q", scope)
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", false, nil
	}
	sid, err := primitive.ObjectIDFromHex(scopeID)
	if err != nil {
		return "", false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Lookup())
	defer cancel()

	owner, err := owners.OwnerID(ctx, sid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scopepolicy: load %s owner: %w", scope, err)
	}
	if owner == uid {
		return models.PermissionEdit, true, nil
	}

	perm, err := g.grants.Permission(ctx, scope, sid, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scopepolicy: load %s grant: %w", scope, err)
	}
	return perm, true, nil
}
