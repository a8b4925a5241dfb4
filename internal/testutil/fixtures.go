package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active test user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, fullName, email, "active")
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, fullName, email, "disabled")
}

func (f *Fixtures) insertUser(ctx context.Context, fullName, email, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Email:     strings.ToLower(email),
		AvatarURL: "https://avatars.test/" + strings.ToLower(strings.ReplaceAll(fullName, " ", "-")) + ".png",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateNote creates a note owned by ownerID.
func (f *Fixtures) CreateNote(ctx context.Context, ownerID primitive.ObjectID, title string) models.Note {
	f.t.Helper()

	now := time.Now().UTC()
	note := models.Note{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("notes").InsertOne(ctx, note); err != nil {
		f.t.Fatalf("failed to create test note: %v", err)
	}
	return note
}

// CreateTask creates a TODO task owned by ownerID.
func (f *Fixtures) CreateTask(ctx context.Context, ownerID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Title:     title,
		Status:    models.TaskTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateShare grants userID the given permission on a scope.
func (f *Fixtures) CreateShare(ctx context.Context, scope models.ScopeType, scopeID, userID, sharedBy primitive.ObjectID, perm models.Permission) models.Share {
	f.t.Helper()

	now := time.Now().UTC()
	share := models.Share{
		ID:         primitive.NewObjectID(),
		ScopeType:  scope,
		ScopeID:    scopeID,
		UserID:     userID,
		Permission: perm,
		SharedBy:   sharedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("shares").InsertOne(ctx, share); err != nil {
		f.t.Fatalf("failed to create test share: %v", err)
	}
	return share
}
