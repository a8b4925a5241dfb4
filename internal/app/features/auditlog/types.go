// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// historyItem is one audit event as returned to clients.
type historyItem struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"`
	ActorID   string            `json:"actorId,omitempty"`
	UserID    string            `json:"userId,omitempty"`
	Success   bool              `json:"success"`
	Details   map[string]string `json:"details,omitempty"`
}

type historyResponse struct {
	Events []historyItem `json:"events"`
	Total  int64         `json:"total"`
	paging.Range
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func toItem(e audit.Event) historyItem {
	return historyItem{
		ID:        e.ID.Hex(),
		Timestamp: e.Timestamp,
		EventType: e.EventType,
		ActorID:   hexOrEmpty(e.ActorID),
		UserID:    hexOrEmpty(e.UserID),
		Success:   e.Success,
		Details:   e.Details,
	}
}

// sharingEventTypes lists the event types accepted by the "event" filter.
func sharingEventTypes() []string {
	return []string{
		audit.EventShareGranted,
		audit.EventShareRevoked,
	}
}

func validEventType(v string) bool {
	if v == "" {
		return true
	}
	for _, t := range sharingEventTypes() {
		if t == v {
			return true
		}
	}
	return false
}
