package notestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errOwnerRequired = errors.New("owner is required")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notes")}
}

// Create inserts a note. Title is trimmed; content is stored as given.
func (s *Store) Create(ctx context.Context, n models.Note) (models.Note, error) {
	if n.OwnerID.IsZero() {
		return models.Note{}, errOwnerRequired
	}
	n.ID = primitive.NewObjectID()
	n.Title = strings.TrimSpace(n.Title)
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// GetByID loads a note. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Note, error) {
	var n models.Note
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// OwnerID returns the owner of a note without loading its content.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) OwnerID(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	var doc struct {
		OwnerID primitive.ObjectID `bson:"owner_id"`
	}
	proj := options.FindOne().SetProjection(bson.M{"owner_id": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&doc); err != nil {
		return primitive.NilObjectID, err
	}
	return doc.OwnerID, nil
}
