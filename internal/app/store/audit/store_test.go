package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_DefaultsIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventHandshakeRejected,
		UserID:    &userID,
		IP:        "192.168.1.1",
		Details:   map[string]string{"reason": "token expired"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if ev.Timestamp.Before(before) {
		t.Errorf("timestamp %v not set to now", ev.Timestamp)
	}
	if ev.Details["reason"] != "token expired" {
		t.Errorf("details = %v", ev.Details)
	}
}

func TestStore_ForScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	noteID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	actor := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	for i, ev := range []struct {
		typ   string
		scope primitive.ObjectID
	}{
		{audit.EventShareGranted, noteID},
		{audit.EventShareGranted, otherID},
		{audit.EventShareRevoked, noteID},
	} {
		scope := ev.scope
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategorySharing,
			EventType: ev.typ,
			ActorID:   &actor,
			ScopeType: models.ScopeNote,
			ScopeID:   &scope,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.ForScope(ctx, models.ScopeNote, noteID, 10)
	if err != nil {
		t.Fatalf("ForScope failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventShareRevoked {
		t.Errorf("newest first: got %q", events[0].EventType)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{ActorID: &actor, EventType: audit.EventShareGranted})
	if err != nil || n != 2 {
		t.Errorf("CountByFilter = %d, %v; want 2", n, err)
	}
}

func TestStore_Query_TimeRangeAndLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Category:  audit.CategorySharing,
			EventType: audit.EventShareGranted,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	start := base.Add(time.Hour)
	end := base.Add(3 * time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("time range: got %d events, want 3", len(events))
	}

	events, err = store.Query(ctx, audit.QueryFilter{Category: audit.CategorySharing, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 || !events[0].Timestamp.Equal(base.Add(3*time.Hour)) {
		t.Errorf("limit/offset: got %d events starting %v", len(events), events)
	}
}
