package collab

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.uber.org/zap"
)

// errNotInRoom is reported when a relay names a scope the connection has
// not joined.
var errNotInRoom = errors.New("not joined to this scope")

// clientError carries a message that is safe to show the requester.
// Other handler errors are logged and reported as "request failed".
type clientError struct{ msg string }

func (e clientError) Error() string { return e.msg }

func badRequest(msg string) error { return clientError{msg} }

// handler processes one inbound event. A returned error is logged and
// reported to the requester as the route's generic error event.
type handler func(s *Session, ctx context.Context, data json.RawMessage) error

type route struct {
	scope models.ScopeType // selects error vs task-error
	fn    handler
}

var routes map[string]route

func init() {
	routes = map[string]route{
		EvJoinNote:  {models.ScopeNote, joinHandler(models.ScopeNote)},
		EvLeaveNote: {models.ScopeNote, leaveHandler(models.ScopeNote)},
		EvJoinTask:  {models.ScopeTask, joinHandler(models.ScopeTask)},
		EvLeaveTask: {models.ScopeTask, leaveHandler(models.ScopeTask)},

		EvNoteContentChange: {models.ScopeNote, (*Session).onContentChange},
		EvCursorMove:        {models.ScopeNote, (*Session).onCursorMove},
		EvUserTyping:        {models.ScopeNote, typingHandler(models.ScopeNote, EvUserTyping, OutUserTypingUpdated)},
		EvTaskTyping:        {models.ScopeTask, typingHandler(models.ScopeTask, EvTaskTyping, OutTaskTypingUpdated)},
		EvCommentTyping:     {models.ScopeTask, typingHandler(models.ScopeTask, EvCommentTyping, OutCommentTypingUpdate)},
		EvAttachmentAdded:   {models.ScopeNote, (*Session).onAttachmentAdded},
		EvAttachmentDeleted: {models.ScopeNote, (*Session).onAttachmentDeleted},

		EvTaskStatusUpdate: {models.ScopeTask, (*Session).onTaskStatusUpdate},
		EvTaskUpdate:       {models.ScopeTask, (*Session).onTaskUpdate},
		EvTaskComment:      {models.ScopeTask, (*Session).onTaskComment},
		EvCommentDeleted:   {models.ScopeTask, (*Session).onCommentDeleted},

		EvShareNote:            {models.ScopeNote, shareHandler(models.ScopeNote)},
		EvShareTask:            {models.ScopeTask, shareHandler(models.ScopeTask)},
		EvRevokeAccess:         {models.ScopeNote, revokeHandler(models.ScopeNote)},
		EvRevokeTaskAccess:     {models.ScopeTask, revokeHandler(models.ScopeTask)},
		EvRevokeAccessBulk:     {models.ScopeNote, bulkRevokeHandler(models.ScopeNote)},
		EvRevokeTaskAccessBulk: {models.ScopeTask, bulkRevokeHandler(models.ScopeTask)},

		EvJoinUserRoom: {models.ScopeNote, (*Session).onJoinUserRoom},
	}
}

// Session is the state machine for one authenticated connection. Handle
// is called from the connection's read loop only, so events from one
// connection are processed in order; different sessions run
// concurrently and share state only through the Hub.
type Session struct {
	svc    *Service
	hub    *Hub
	client *Client
	log    *zap.Logger
}

// NewSession binds a client to the service. Call Open before Handle.
func (svc *Service) NewSession(c *Client) *Session {
	return &Session{
		svc:    svc,
		hub:    svc.Hub,
		client: c,
		log: svc.Log.With(
			zap.String("conn_id", c.ID),
			zap.String("user_id", c.UserID)),
	}
}

// Client returns the session's connection.
func (s *Session) Client() *Client {
	return s.client
}

// Open registers the connection, announces the user to everyone else when
// this is their first connection, and sends the requester the current
// online set.
func (s *Session) Open() {
	first := s.hub.Register(s.client)
	s.log.Info("session opened", zap.Bool("first_connection", first))

	if first {
		user := s.client.User
		s.hub.ToAll(s.client, OutUserOnline, presencePayload{
			UserID:    s.client.UserID,
			User:      &user,
			Timestamp: s.svc.timestamp(),
		})
	}
	s.hub.Send(s.client, OutOnlineUsers, onlineUsersPayload{UserIDs: s.hub.Presence().Online()})
}

// Close leaves every room, unregisters the connection and, when it was
// the user's last, announces the user offline. In-flight handlers are
// not cancelled; their later emits to this client are dropped.
func (s *Session) Close() {
	for _, st := range models.AllScopeTypes {
		if id, ok := s.hub.RoomOf(s.client, st); ok {
			s.svc.leaveRoom(s.client, models.Key(st, id))
		}
	}
	if last := s.hub.Unregister(s.client); last {
		s.hub.ToAll(nil, OutUserOffline, presencePayload{
			UserID:    s.client.UserID,
			Timestamp: s.svc.timestamp(),
		})
	}
	s.log.Info("session closed")
}

// Handle decodes one frame and dispatches it. It never panics and never
// returns an error; failures become error events to this client.
func (s *Session) Handle(ctx context.Context, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
		s.hub.Send(s.client, OutError, errorPayload{Message: "malformed message"})
		return
	}
	s.Dispatch(ctx, env.Event, env.Data)
}

// Dispatch runs the handler for event with panic recovery.
func (s *Session) Dispatch(ctx context.Context, event string, data json.RawMessage) {
	r, ok := routes[event]
	if !ok {
		s.hub.Send(s.client, OutError, errorPayload{Event: event, Message: "unknown event"})
		return
	}

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("panic in event handler",
				zap.String("event", event),
				zap.Any("panic", p),
				zap.Stack("stack"))
			s.fail(r.scope, event, "", "internal error")
		}
	}()

	if err := r.fn(s, ctx, data); err != nil {
		var ce clientError
		if errors.As(err, &ce) {
			s.fail(r.scope, event, "", ce.msg)
			return
		}
		s.log.Error("event handler failed", zap.String("event", event), zap.Error(err))
		s.fail(r.scope, event, "", "request failed")
	}
}

// fail sends the scope's generic error event to the requester.
func (s *Session) fail(scope models.ScopeType, event, scopeID, msg string) {
	var ref ScopeRef
	if scopeID != "" {
		ref = refFor(models.Key(scope, scopeID))
	}
	s.hub.Send(s.client, eventsFor[scope].errorEvent, errorPayload{
		ScopeRef: ref,
		Event:    event,
		Message:  msg,
	})
}

// requireRoom checks that the relay names the room this connection is in.
func (s *Session) requireRoom(scope models.ScopeType, scopeID string) (models.ScopeKey, error) {
	if scopeID == "" {
		return models.ScopeKey{}, badRequest("scopeId is required")
	}
	if cur, ok := s.hub.RoomOf(s.client, scope); !ok || cur != scopeID {
		return models.ScopeKey{}, errNotInRoom
	}
	return models.Key(scope, scopeID), nil
}

// relayKey resolves the room for a relay and reports failures to the
// requester itself.
func (s *Session) relayKey(scope models.ScopeType, event string, args scopeArgs) (models.ScopeKey, bool) {
	key, err := s.requireRoom(scope, args.id())
	if err != nil {
		s.fail(scope, event, args.id(), err.Error())
		return key, false
	}
	return key, true
}

func (s *Session) onJoinUserRoom(_ context.Context, _ json.RawMessage) error {
	s.hub.Subscribe(s.client)
	s.hub.Send(s.client, OutUserRoom, presencePayload{
		UserID:    s.client.UserID,
		Timestamp: s.svc.timestamp(),
	})
	return nil
}
