package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/dalemusser/collabhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.HandshakeRejected(ctx, req, "token expired")
	logger.ShareGranted(ctx, req, "a", "b", models.Key(models.ScopeNote, "n"), models.PermissionView, 0)
}

func TestValidateMode(t *testing.T) {
	for _, ok := range []string{"all", "db", "log", "off"} {
		if err := auditlog.ValidateMode(ok); err != nil {
			t.Errorf("ValidateMode(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "ALL", "both"} {
		if err := auditlog.ValidateMode(bad); err == nil {
			t.Errorf("ValidateMode(%q) accepted", bad)
		}
	}
}

func TestLogger_Modes(t *testing.T) {
	tests := []struct {
		mode    string
		wantDB  int64
		wantLog int
	}{
		{auditlog.ModeAll, 1, 1},
		{auditlog.ModeDB, 1, 0},
		{auditlog.ModeLog, 0, 1},
		{auditlog.ModeOff, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.mode, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zapcore.DebugLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{
				Auth:    auditlog.ModeOff,
				Sharing: tc.mode,
			})

			actor := primitive.NewObjectID()
			target := primitive.NewObjectID()
			note := primitive.NewObjectID()
			req := httptest.NewRequest("POST", "/api/notes/x/shares", nil)
			req.RemoteAddr = "10.0.0.7:5555"

			logger.ShareGranted(ctx, req, actor.Hex(), target.Hex(), models.Key(models.ScopeNote, note.Hex()), models.PermissionEdit, 2)

			n, err := store.CountByFilter(ctx, audit.QueryFilter{ActorID: &actor})
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tc.wantDB {
				t.Errorf("stored events = %d, want %d", n, tc.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tc.wantLog {
				t.Errorf("zap entries = %d, want %d", got, tc.wantLog)
			}
		})
	}
}

func TestLogger_ShareGrantedRecordsScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all", Sharing: "db"})

	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()
	task := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"

	logger.ShareGranted(ctx, req, actor.Hex(), target.Hex(), models.Key(models.ScopeTask, task.Hex()), models.PermissionView, 1)
	logger.ShareRevoked(ctx, req, actor.Hex(), target.Hex(), models.Key(models.ScopeTask, task.Hex()), 0)

	events, err := store.ForScope(ctx, models.ScopeTask, task, 10)
	if err != nil {
		t.Fatalf("ForScope failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	var granted audit.Event
	for _, ev := range events {
		if ev.EventType == audit.EventShareGranted {
			granted = ev
		}
	}
	if granted.ID.IsZero() {
		t.Fatal("share_granted event not stored")
	}
	if granted.UserID == nil || *granted.UserID != target || granted.ActorID == nil || *granted.ActorID != actor {
		t.Errorf("who fields = %v / %v", granted.UserID, granted.ActorID)
	}
	if granted.Details["permission"] != "VIEW" || granted.Details["delivered"] != "1" {
		t.Errorf("details = %v", granted.Details)
	}
	if granted.IP != "10.0.0.7" {
		t.Errorf("ip = %q", granted.IP)
	}
}

func TestLogger_HandshakeRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Sharing: "off"})
	logger.HandshakeRejected(ctx, httptest.NewRequest("GET", "/ws", nil), "token expired")

	events, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || events[0].Success || events[0].FailureReason != "token expired" {
		t.Errorf("events = %+v", events)
	}
}
