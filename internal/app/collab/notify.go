package collab

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.uber.org/zap"
)

// NotifyShared tells targetUserID that a grant on key was committed.
// It returns the number of connections that received the event.
func (svc *Service) NotifyShared(key models.ScopeKey, targetUserID string, perm models.Permission, by models.PublicUser) int {
	return svc.notify(eventsFor[key.Type].shared, targetUserID, Notification{
		ScopeRef:     refFor(key),
		ScopeType:    key.Type,
		TargetUserID: targetUserID,
		Permission:   perm,
		By:           by,
		Timestamp:    svc.timestamp(),
	})
}

// NotifyRevoked tells targetUserID that their grant on key was removed,
// then evicts their connections from the room unless they still have
// access some other way.
func (svc *Service) NotifyRevoked(ctx context.Context, key models.ScopeKey, targetUserID string, by models.PublicUser) int {
	n := svc.notify(eventsFor[key.Type].revoked, targetUserID, Notification{
		ScopeRef:     refFor(key),
		ScopeType:    key.Type,
		TargetUserID: targetUserID,
		By:           by,
		Timestamp:    svc.timestamp(),
	})
	svc.evict(ctx, key, targetUserID)
	return n
}

func (svc *Service) notify(event, targetUserID string, n Notification) int {
	if svc.Mode == NotifyBroadcast {
		return svc.Hub.ToAll(nil, globalPrefix+event, n)
	}
	return svc.Hub.ToUser(targetUserID, event, n)
}

// evict removes targetUserID's connections from the room. When the
// access check itself fails the user is evicted anyway; they can rejoin
// and be checked again.
func (svc *Service) evict(ctx context.Context, key models.ScopeKey, targetUserID string) {
	clients := svc.Hub.RoomClientsOf(key, targetUserID)
	if len(clients) == 0 {
		return
	}
	ok, err := svc.Gate.CanAccess(ctx, key.Type, targetUserID, key.ID)
	if err != nil {
		svc.Log.Warn("access check before eviction failed",
			zap.String("scope", key.String()),
			zap.String("target_user_id", targetUserID),
			zap.Error(err))
	} else if ok {
		return
	}
	for _, c := range clients {
		svc.leaveRoom(c, key)
	}
	svc.Log.Info("evicted revoked user from room",
		zap.String("scope", key.String()),
		zap.String("target_user_id", targetUserID),
		zap.Int("connections", len(clients)))
}

/* --------------------------- socket handlers --------------------------- */

type shareArgs struct {
	scopeArgs
	TargetUserID string            `json:"targetUserId"`
	Permission   models.Permission `json:"permission"`
}

func (a shareArgs) target() string {
	return strings.TrimSpace(a.TargetUserID)
}

// checkEditor reports whether the sender may share or revoke on key and
// sends the denial or error itself when not.
func (s *Session) checkEditor(ctx context.Context, key models.ScopeKey, denied, failed string) bool {
	ok, err := s.svc.Gate.CanEdit(ctx, key.Type, s.client.UserID, key.ID)
	if err != nil {
		s.log.Error("edit check failed", zap.String("scope", key.String()), zap.Error(err))
		s.hub.Send(s.client, failed, ackPayload{ScopeRef: refFor(key), ScopeType: key.Type, Message: "could not verify access"})
		return false
	}
	if !ok {
		s.hub.Send(s.client, denied, ackPayload{ScopeRef: refFor(key), ScopeType: key.Type, Message: "only the owner or an editor can change sharing"})
		return false
	}
	return true
}

// shareHandler announces a grant already committed through the store.
func shareHandler(scope models.ScopeType) handler {
	return func(s *Session, ctx context.Context, data json.RawMessage) error {
		var p shareArgs
		if err := json.Unmarshal(data, &p); err != nil {
			s.hub.Send(s.client, OutShareError, ackPayload{ScopeType: scope, Message: "invalid payload"})
			return nil
		}
		key := models.Key(scope, p.id())
		shareErr := func(msg string) error {
			s.hub.Send(s.client, OutShareError, ackPayload{ScopeRef: refFor(key), ScopeType: scope, TargetUserID: p.target(), Message: msg})
			return nil
		}
		if key.ID == "" || p.target() == "" {
			return shareErr("scopeId and targetUserId are required")
		}
		if p.target() == s.client.UserID {
			return shareErr("cannot share with yourself")
		}
		if p.Permission == "" {
			p.Permission = models.PermissionView
		}
		if !p.Permission.IsValid() {
			return shareErr("permission must be VIEW or EDIT")
		}
		if !s.checkEditor(ctx, key, OutShareDenied, OutShareError) {
			return nil
		}

		n := s.svc.NotifyShared(key, p.target(), p.Permission, s.client.User)
		s.log.Info("share notified",
			zap.String("scope", key.String()),
			zap.String("target_user_id", p.target()),
			zap.Int("delivered", n))
		s.hub.Send(s.client, OutShareSuccess, ackPayload{
			ScopeRef:     refFor(key),
			ScopeType:    scope,
			TargetUserID: p.target(),
		})
		return nil
	}
}

func revokeHandler(scope models.ScopeType) handler {
	return func(s *Session, ctx context.Context, data json.RawMessage) error {
		var p shareArgs
		if err := json.Unmarshal(data, &p); err != nil {
			s.hub.Send(s.client, OutRevokeError, ackPayload{ScopeType: scope, Message: "invalid payload"})
			return nil
		}
		key := models.Key(scope, p.id())
		if key.ID == "" || p.target() == "" {
			s.hub.Send(s.client, OutRevokeError, ackPayload{ScopeRef: refFor(key), ScopeType: scope, Message: "scopeId and targetUserId are required"})
			return nil
		}
		if !s.checkEditor(ctx, key, OutRevokeDenied, OutRevokeError) {
			return nil
		}

		s.svc.NotifyRevoked(ctx, key, p.target(), s.client.User)
		s.hub.Send(s.client, OutRevokeSuccess, ackPayload{
			ScopeRef:     refFor(key),
			ScopeType:    scope,
			TargetUserID: p.target(),
			Count:        1,
		})
		return nil
	}
}

// bulkRevokeHandler notifies each (targetUserId, scopeId) pair on its own.
// There is no grouping: pairs the sender may not edit are skipped and
// counted, the rest are delivered.
func bulkRevokeHandler(scope models.ScopeType) handler {
	return func(s *Session, ctx context.Context, data json.RawMessage) error {
		var p struct {
			Revocations []shareArgs `json:"revocations"`
		}
		if err := json.Unmarshal(data, &p); err != nil || len(p.Revocations) == 0 {
			s.hub.Send(s.client, OutRevokeError, ackPayload{ScopeType: scope, Message: "revocations is required"})
			return nil
		}

		// One edit check per distinct scope within this request.
		editable := make(map[string]bool)
		var count, denied, failed int
		for _, r := range p.Revocations {
			key := models.Key(scope, r.id())
			if key.ID == "" || r.target() == "" {
				failed++
				continue
			}
			ok, seen := editable[key.ID]
			if !seen {
				var err error
				ok, err = s.svc.Gate.CanEdit(ctx, scope, s.client.UserID, key.ID)
				if err != nil {
					s.log.Error("edit check failed", zap.String("scope", key.String()), zap.Error(err))
					failed++
					continue
				}
				editable[key.ID] = ok
			}
			if !ok {
				denied++
				continue
			}
			s.svc.NotifyRevoked(ctx, key, r.target(), s.client.User)
			count++
		}

		ack := ackPayload{ScopeType: scope, Count: count, Denied: denied, Failed: failed}
		switch {
		case count == 0 && denied > 0 && failed == 0:
			ack.Message = "only the owner or an editor can change sharing"
			s.hub.Send(s.client, OutRevokeDenied, ack)
		case count == 0:
			ack.Message = "no revocations were delivered"
			s.hub.Send(s.client, OutRevokeError, ack)
		default:
			s.hub.Send(s.client, OutRevokeSuccess, ack)
		}
		return nil
	}
}
