package taskstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrInvalidStatus is returned for a status outside models.AllTaskStatuses.
	ErrInvalidStatus = errors.New("invalid task status")
	errOwnerRequired = errors.New("owner is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts a task. An empty status defaults to TODO.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.OwnerID.IsZero() {
		return models.Task{}, errOwnerRequired
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if !models.IsValidTaskStatus(string(t.Status)) {
		return models.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	t.ID = primitive.NewObjectID()
	t.Title = strings.TrimSpace(t.Title)
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// OwnerID returns the owner of a task. Returns mongo.ErrNoDocuments if not found.
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

// UpdateStatus sets the workflow status and returns the updated task.
// Returns mongo.ErrNoDocuments if the task does not exist.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error) {
	if !models.IsValidTaskStatus(string(status)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
