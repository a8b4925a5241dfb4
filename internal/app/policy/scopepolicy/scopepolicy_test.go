package scopepolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/policy/scopepolicy"
	notestore "github.com/dalemusser/collabhub/internal/app/store/notes"
	sharestore "github.com/dalemusser/collabhub/internal/app/store/shares"
	taskstore "github.com/dalemusser/collabhub/internal/app/store/tasks"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeOwners map[primitive.ObjectID]primitive.ObjectID

func (f fakeOwners) OwnerID(_ context.Context, id primitive.ObjectID) (primitive.ObjectID, error) {
	owner, ok := f[id]
	if !ok {
		return primitive.NilObjectID, mongo.ErrNoDocuments
	}
	return owner, nil
}

type grantKey struct {
	scope   models.ScopeType
	scopeID primitive.ObjectID
	userID  primitive.ObjectID
}

type fakeGrants struct {
	perms map[grantKey]models.Permission
	err   error
	calls int
}

func (f *fakeGrants) Permission(_ context.Context, scope models.ScopeType, scopeID, userID primitive.ObjectID) (models.Permission, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	p, ok := f.perms[grantKey{scope, scopeID, userID}]
	if !ok {
		return "", mongo.ErrNoDocuments
	}
	return p, nil
}

func TestGate(t *testing.T) {
	owner, viewer, editor, stranger := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	task := primitive.NewObjectID()

	tasks := fakeOwners{task: owner}
	grants := &fakeGrants{perms: map[grantKey]models.Permission{
		{models.ScopeTask, task, viewer}: models.PermissionView,
		{models.ScopeTask, task, editor}: models.PermissionEdit,
		// A note grant with the same ids must not leak into task access.
		{models.ScopeNote, task, stranger}: models.PermissionEdit,
	}}
	gate := scopepolicy.NewGate(fakeOwners{}, tasks, grants)

	tests := []struct {
		name       string
		user       string
		scopeID    string
		wantAccess bool
		wantEdit   bool
	}{
		{"owner", owner.Hex(), task.Hex(), true, true},
		{"view grant", viewer.Hex(), task.Hex(), true, false},
		{"edit grant", editor.Hex(), task.Hex(), true, true},
		{"no grant", stranger.Hex(), task.Hex(), false, false},
		{"missing task", owner.Hex(), primitive.NewObjectID().Hex(), false, false},
		{"malformed scope id", owner.Hex(), "not-hex", false, false},
		{"malformed user id", "nope", task.Hex(), false, false},
	}
	ctx := context.Background()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			access, err := gate.CanAccess(ctx, models.ScopeTask, tc.user, tc.scopeID)
			if err != nil {
				t.Fatalf("CanAccess: %v", err)
			}
			if access != tc.wantAccess {
				t.Errorf("CanAccess = %v, want %v", access, tc.wantAccess)
			}
			edit, err := gate.CanEdit(ctx, models.ScopeTask, tc.user, tc.scopeID)
			if err != nil {
				t.Fatalf("CanEdit: %v", err)
			}
			if edit != tc.wantEdit {
				t.Errorf("CanEdit = %v, want %v", edit, tc.wantEdit)
			}
		})
	}
}

func TestGate_NoCaching(t *testing.T) {
	owner, viewer, note := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	grants := &fakeGrants{perms: map[grantKey]models.Permission{
		{models.ScopeNote, note, viewer}: models.PermissionView,
	}}
	gate := scopepolicy.NewGate(fakeOwners{note: owner}, fakeOwners{}, grants)
	ctx := context.Background()

	if ok, _ := gate.CanAccess(ctx, models.ScopeNote, viewer.Hex(), note.Hex()); !ok {
		t.Fatal("expected access before revoke")
	}
	delete(grants.perms, grantKey{models.ScopeNote, note, viewer})
	if ok, _ := gate.CanAccess(ctx, models.ScopeNote, viewer.Hex(), note.Hex()); ok {
		t.Error("expected revoke to take effect on next check")
	}
	if grants.calls != 2 {
		t.Errorf("grant lookups = %d, want 2", grants.calls)
	}
}

func TestGate_StoreError(t *testing.T) {
	owner, other, note := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	boom := errors.New("connection reset")
	gate := scopepolicy.NewGate(fakeOwners{note: owner}, fakeOwners{}, &fakeGrants{err: boom})

	ok, err := gate.CanAccess(context.Background(), models.ScopeNote, other.Hex(), note.Hex())
	if ok || !errors.Is(err, boom) {
		t.Errorf("CanAccess = %v, %v; want false, wrapped store error", ok, err)
	}
}

func TestGate_UnknownScope(t *testing.T) {
	gate := scopepolicy.NewGate(fakeOwners{}, fakeOwners{}, &fakeGrants{})
	id := primitive.NewObjectID().Hex()
	if _, err := gate.CanAccess(context.Background(), "project", id, id); err == nil {
		t.Error("expected error for unknown scope type")
	}
}

func TestGate_WithMongoStores(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	viewer := fixtures.CreateUser(ctx, "Viewer", "viewer@example.com")
	task := fixtures.CreateTask(ctx, owner.ID, "Launch")
	fixtures.CreateShare(ctx, models.ScopeTask, task.ID, viewer.ID, owner.ID, models.PermissionView)

	gate := scopepolicy.NewGate(notestore.New(db), taskstore.New(db), sharestore.New(db))

	if ok, err := gate.CanAccess(ctx, models.ScopeTask, viewer.ID.Hex(), task.ID.Hex()); err != nil || !ok {
		t.Errorf("viewer CanAccess = %v, %v; want true", ok, err)
	}
	if ok, err := gate.CanEdit(ctx, models.ScopeTask, viewer.ID.Hex(), task.ID.Hex()); err != nil || ok {
		t.Errorf("viewer CanEdit = %v, %v; want false", ok, err)
	}
	if ok, err := gate.CanEdit(ctx, models.ScopeTask, owner.ID.Hex(), task.ID.Hex()); err != nil || !ok {
		t.Errorf("owner CanEdit = %v, %v; want true", ok, err)
	}
}
