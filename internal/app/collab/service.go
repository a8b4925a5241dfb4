// Package collab is the real-time collaboration core: per-connection
// sessions, scope rooms, presence broadcasts and targeted notifications.
// It knows nothing about the socket library; features/realtime feeds it
// decoded frames and drains each Client's outbound queue.
package collab

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Gate answers authorization questions against the store.
type Gate interface {
	CanAccess(ctx context.Context, scope models.ScopeType, userID, scopeID string) (bool, error)
	CanEdit(ctx context.Context, scope models.ScopeType, userID, scopeID string) (bool, error)
}

// Directory resolves user ids to public identities, dropping ids that no
// longer resolve.
type Directory interface {
	FetchMany(ctx context.Context, ids []string) ([]models.PublicUser, error)
}

// TaskWriter persists task status changes.
type TaskWriter interface {
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error)
}

// NotifyMode selects how share and revoke notifications are addressed.
type NotifyMode string

const (
	// NotifyPersonal delivers to the target's personal channel only.
	NotifyPersonal NotifyMode = "personal"
	// NotifyBroadcast delivers global-* events to every connection and
	// relies on clients filtering by targetUserId.
	NotifyBroadcast NotifyMode = "broadcast"
)

// ParseNotifyMode validates a configured mode. Empty means personal.
func ParseNotifyMode(v string) (NotifyMode, error) {
	switch NotifyMode(v) {
	case "", NotifyPersonal:
		return NotifyPersonal, nil
	case NotifyBroadcast:
		return NotifyBroadcast, nil
	}
	return "", fmt.Errorf("notify mode must be %q or %q, got %q", NotifyPersonal, NotifyBroadcast, v)
}

// Service wires the hub to its store-backed collaborators. One Service
// serves every connection.
type Service struct {
	Hub   *Hub
	Gate  Gate
	Users Directory
	Tasks TaskWriter
	Mode  NotifyMode
	Log   *zap.Logger

	now func() time.Time
}

// NewService creates a Service with a fresh Hub.
func NewService(gate Gate, users Directory, tasks TaskWriter, mode NotifyMode, logger *zap.Logger) *Service {
	return &Service{
		Hub:   NewHub(logger),
		Gate:  gate,
		Users: users,
		Tasks: tasks,
		Mode:  mode,
		Log:   logger,
		now:   time.Now,
	}
}

// SetClock overrides the time source used for event timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// isoMillis matches the millisecond ISO-8601 form browsers produce.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func (s *Service) timestamp() string {
	return s.now().UTC().Format(isoMillis)
}
