package collab

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// onTaskStatusUpdate re-checks edit rights, validates the status, persists
// it and confirms to the whole room. A sender outside the room gets the
// confirmation directly.
func (s *Session) onTaskStatusUpdate(ctx context.Context, data json.RawMessage) error {
	var p struct {
		scopeArgs
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return badRequest("invalid payload")
	}
	id := p.id()
	key := models.Key(models.ScopeTask, id)
	reject := func(event, msg string) error {
		s.hub.Send(s.client, event, errorPayload{
			ScopeRef: refFor(key),
			Event:    EvTaskStatusUpdate,
			Message:  msg,
		})
		return nil
	}
	if id == "" {
		return reject(OutTaskUpdateError, "taskId is required")
	}

	ok, err := s.svc.Gate.CanEdit(ctx, models.ScopeTask, s.client.UserID, id)
	if err != nil {
		s.log.Error("edit check failed", zap.String("scope", key.String()), zap.Error(err))
		s.fail(models.ScopeTask, EvTaskStatusUpdate, id, "could not verify access")
		return nil
	}
	if !ok {
		return reject(OutTaskUpdateDenied, "you do not have permission to update this task")
	}

	if !models.IsValidTaskStatus(p.Status) {
		return reject(OutTaskUpdateError, "status must be one of TODO, IN_PROGRESS, DONE")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return reject(OutTaskUpdateError, "invalid task id")
	}

	wctx, cancel := context.WithTimeout(ctx, timeouts.Write())
	defer cancel()
	task, err := s.svc.Tasks.UpdateStatus(wctx, oid, models.TaskStatus(p.Status))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return reject(OutTaskUpdateError, "task not found")
	}
	if err != nil {
		s.log.Error("persist task status failed",
			zap.String("scope", key.String()),
			zap.String("status", p.Status),
			zap.Error(err))
		s.fail(models.ScopeTask, EvTaskStatusUpdate, id, "could not update task")
		return nil
	}

	payload := statusPayload{
		ScopeRef:  refFor(key),
		Status:    task.Status,
		UpdatedBy: s.client.User,
		Timestamp: s.svc.timestamp(),
	}
	s.hub.ToRoom(key, nil, OutTaskStatusChanged, payload)
	if cur, in := s.hub.RoomOf(s.client, models.ScopeTask); !in || cur != id {
		s.hub.Send(s.client, OutTaskStatusChanged, payload)
	}
	return nil
}
