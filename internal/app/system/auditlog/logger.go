// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for one event category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// ValidateMode rejects values other than all, db, log or off.
func ValidateMode(v string) error {
	switch v {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return nil
	}
	return fmt.Errorf("audit mode must be all, db, log or off, got %q", v)
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for rejected socket handshakes.
	Auth string
	// Sharing controls logging for grants and revocations.
	Sharing string
}

// Logger records audit events to MongoDB (via audit.Store) and to
// structured logs (via zap). A nil *Logger discards everything.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ScopeID != nil {
		fields = append(fields,
			zap.String("scope_type", string(event.ScopeType)),
			zap.String("scope_id", event.ScopeID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an event according to its category's configured mode.
// Unknown categories are treated as "all".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategorySharing:
		setting = l.config.Sharing
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func oidPtr(hex string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &oid
}

// --- Authentication Events ---

// HandshakeRejected logs a socket handshake that failed authentication.
func (l *Logger) HandshakeRejected(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventHandshakeRejected,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// --- Sharing Events ---

// ShareGranted logs a committed grant. delivered is the number of live
// connections that were notified.
func (l *Logger) ShareGranted(ctx context.Context, r *http.Request, actorID, targetUserID string, key models.ScopeKey, perm models.Permission, delivered int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySharing,
		EventType: audit.EventShareGranted,
		UserID:    oidPtr(targetUserID),
		ActorID:   oidPtr(actorID),
		ScopeType: key.Type,
		ScopeID:   oidPtr(key.ID),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"permission": string(perm),
			"delivered":  strconv.Itoa(delivered),
		},
	})
}

// ShareRevoked logs a committed revocation.
func (l *Logger) ShareRevoked(ctx context.Context, r *http.Request, actorID, targetUserID string, key models.ScopeKey, delivered int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySharing,
		EventType: audit.EventShareRevoked,
		UserID:    oidPtr(targetUserID),
		ActorID:   oidPtr(actorID),
		ScopeType: key.Type,
		ScopeID:   oidPtr(key.ID),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"delivered": strconv.Itoa(delivered),
		},
	})
}

// BulkRevoke logs the outcome counts of one bulk revocation. Each
// successful pair is also logged individually through ShareRevoked.
func (l *Logger) BulkRevoke(ctx context.Context, r *http.Request, actorID string, scope models.ScopeType, count, denied, notFound, failed int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySharing,
		EventType: audit.EventShareBulkRevoke,
		ActorID:   oidPtr(actorID),
		ScopeType: scope,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   failed == 0,
		Details: map[string]string{
			"count":     strconv.Itoa(count),
			"denied":    strconv.Itoa(denied),
			"not_found": strconv.Itoa(notFound),
			"failed":    strconv.Itoa(failed),
		},
	})
}
