package sharestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrInvalidPermission is returned for a permission other than VIEW or EDIT.
	ErrInvalidPermission = errors.New("permission must be VIEW or EDIT")
	// ErrInvalidScope is returned for an unknown scope type.
	ErrInvalidScope = errors.New("unknown scope type")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("shares")}
}

func key(scope models.ScopeType, scopeID, userID primitive.ObjectID) bson.M {
	return bson.M{"scope_type": scope, "scope_id": scopeID, "user_id": userID}
}

// Grant creates or updates the share for (scope, scopeID, userID).
// Re-sharing changes the permission and keeps the original created_at.
func (s *Store) Grant(ctx context.Context, scope models.ScopeType, scopeID, userID, sharedBy primitive.ObjectID, perm models.Permission) (models.Share, error) {
	if !scope.IsValid() {
		return models.Share{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	if !perm.IsValid() {
		return models.Share{}, ErrInvalidPermission
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"permission": perm,
			"shared_by":  sharedBy,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var sh models.Share
	if err := s.c.FindOneAndUpdate(ctx, key(scope, scopeID, userID), update, opts).Decode(&sh); err != nil {
		return models.Share{}, err
	}
	return sh, nil
}

// Get returns the share for (scope, scopeID, userID).
// Returns mongo.ErrNoDocuments if there is none.
func (s *Store) Get(ctx context.Context, scope models.ScopeType, scopeID, userID primitive.ObjectID) (*models.Share, error) {
	var sh models.Share
	if err := s.c.FindOne(ctx, key(scope, scopeID, userID)).Decode(&sh); err != nil {
		return nil, err
	}
	return &sh, nil
}

// Permission returns the granted permission for (scope, scopeID, userID).
// Returns mongo.ErrNoDocuments if there is no grant.
func (s *Store) Permission(ctx context.Context, scope models.ScopeType, scopeID, userID primitive.ObjectID) (models.Permission, error) {
	var doc struct {
		Permission models.Permission `bson:"permission"`
	}
	proj := options.FindOne().SetProjection(bson.M{"permission": 1})
	if err := s.c.FindOne(ctx, key(scope, scopeID, userID), proj).Decode(&doc); err != nil {
		return "", err
	}
	return doc.Permission, nil
}

// Revoke deletes the share and reports whether one existed.
func (s *Store) Revoke(ctx context.Context, scope models.ScopeType, scopeID, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, key(scope, scopeID, userID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListForScope returns every share on one note or task, oldest first.
func (s *Store) ListForScope(ctx context.Context, scope models.ScopeType, scopeID primitive.ObjectID) ([]models.Share, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"scope_type": scope, "scope_id": scopeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Share{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
