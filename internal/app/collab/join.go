package collab

import (
	"context"
	"encoding/json"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.uber.org/zap"
)

func joinHandler(scope models.ScopeType) handler {
	return func(s *Session, ctx context.Context, data json.RawMessage) error {
		args, err := decodeScopeArgs(data)
		if err != nil {
			return badRequest("invalid payload")
		}
		id := args.id()
		if id == "" {
			return badRequest("scopeId is required")
		}
		s.join(ctx, models.Key(scope, id))
		return nil
	}
}

func leaveHandler(scope models.ScopeType) handler {
	return func(s *Session, _ context.Context, data json.RawMessage) error {
		args, err := decodeScopeArgs(data)
		if err != nil {
			return badRequest("invalid payload")
		}
		id := args.id()
		if id == "" {
			cur, ok := s.hub.RoomOf(s.client, scope)
			if !ok {
				return nil
			}
			id = cur
		}
		s.svc.leaveRoom(s.client, models.Key(scope, id))
		return nil
	}
}

// join admits the connection to a scope room. Authorization runs before
// any state changes; a denied join leaves every room untouched.
func (s *Session) join(ctx context.Context, key models.ScopeKey) {
	ev := eventsFor[key.Type]
	ref := refFor(key)

	ok, err := s.svc.Gate.CanAccess(ctx, key.Type, s.client.UserID, key.ID)
	if err != nil {
		s.log.Error("access check failed",
			zap.String("scope", key.String()),
			zap.Error(err))
		s.fail(key.Type, ev.join, key.ID, "could not verify access")
		return
	}
	if !ok {
		s.hub.Send(s.client, ev.accessDenied, errorPayload{
			ScopeRef: ref,
			Event:    ev.join,
			Message:  "you do not have access to this " + string(key.Type),
		})
		return
	}

	if cur, in := s.hub.RoomOf(s.client, key.Type); in && cur != key.ID {
		s.svc.leaveRoom(s.client, models.Key(key.Type, cur))
	}
	// Room-mates hear about a user once, however many connections or
	// repeated joins bring them in.
	if s.hub.JoinRoom(s.client, key) {
		user := s.client.User
		s.hub.ToRoom(key, s.client, ev.userJoined, memberPayload{
			ScopeRef:  ref,
			UserID:    s.client.UserID,
			User:      &user,
			Timestamp: s.svc.timestamp(),
		})
	}

	// Resolved fresh on every join so profile changes show up here even
	// though each connection keeps the identity it authenticated with.
	collaborators, err := s.svc.Users.FetchMany(ctx, s.hub.Registry(key.Type).Members(key.ID))
	if err != nil {
		s.log.Error("load collaborators failed",
			zap.String("scope", key.String()),
			zap.Error(err))
		s.fail(key.Type, ev.join, key.ID, "could not load collaborators")
		return
	}
	s.hub.Send(s.client, ev.collaborators, collaboratorsPayload{
		ScopeRef:      ref,
		Collaborators: collaborators,
	})
	s.log.Debug("joined scope", zap.String("scope", key.String()))
}

// leaveRoom removes c from the room and, when the user has no other
// connection there, tells the remaining members.
func (svc *Service) leaveRoom(c *Client, key models.ScopeKey) bool {
	if !svc.Hub.LeaveRoom(c, key) {
		return false
	}
	user := c.User
	svc.Hub.ToRoom(key, c, eventsFor[key.Type].userLeft, memberPayload{
		ScopeRef:  refFor(key),
		UserID:    c.UserID,
		User:      &user,
		Timestamp: svc.timestamp(),
	})
	return true
}
