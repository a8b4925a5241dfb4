package collab

import (
	"context"
	"encoding/json"

	"github.com/dalemusser/collabhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/google/uuid"
)

// Relays carry no access re-check: the sender must be in the room, and
// room admission was gated. Frames go to every other connection in the
// room and are not persisted.

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func (s *Session) onContentChange(_ context.Context, data json.RawMessage) error {
	var p struct {
		scopeArgs
		Content        json.RawMessage `json:"content"`
		CursorPosition json.RawMessage `json:"cursorPosition"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return badRequest("invalid payload")
	}
	key, ok := s.relayKey(models.ScopeNote, EvNoteContentChange, p.scopeArgs)
	if !ok {
		return nil
	}
	if !hasValue(p.Content) {
		return badRequest("content is required")
	}
	s.hub.ToRoom(key, s.client, OutNoteContentUpdated, contentPayload{
		ScopeRef:       refFor(key),
		Content:        p.Content,
		CursorPosition: p.CursorPosition,
		UpdatedBy:      s.client.User,
		Timestamp:      s.svc.timestamp(),
	})
	return nil
}

func (s *Session) onCursorMove(_ context.Context, data json.RawMessage) error {
	var p struct {
		scopeArgs
		Position json.RawMessage `json:"position"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return badRequest("invalid payload")
	}
	key, ok := s.relayKey(models.ScopeNote, EvCursorMove, p.scopeArgs)
	if !ok {
		return nil
	}
	s.hub.ToRoom(key, s.client, OutCursorUpdated, cursorPayload{
		ScopeRef:  refFor(key),
		Position:  p.Position,
		User:      s.client.User,
		Timestamp: s.svc.timestamp(),
	})
	return nil
}

func typingHandler(scope models.ScopeType, in, out string) handler {
	return func(s *Session, _ context.Context, data json.RawMessage) error {
		var p struct {
			scopeArgs
			IsTyping bool `json:"isTyping"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return badRequest("invalid payload")
		}
		key, ok := s.relayKey(scope, in, p.scopeArgs)
		if !ok {
			return nil
		}
		s.hub.ToRoom(key, s.client, out, typingPayload{
			ScopeRef:  refFor(key),
			IsTyping:  p.IsTyping,
			User:      s.client.User,
			Timestamp: s.svc.timestamp(),
		})
		return nil
	}
}

type attachmentArgs struct {
	scopeArgs
	Attachment   json.RawMessage `json:"attachment"`
	AttachmentID string          `json:"attachmentId"`
}

// decodeAttachment resolves the optional scopeType, which defaults to note.
func (s *Session) decodeAttachment(event string, data json.RawMessage) (attachmentArgs, models.ScopeKey, bool, error) {
	var p attachmentArgs
	if err := json.Unmarshal(data, &p); err != nil {
		return p, models.ScopeKey{}, false, badRequest("invalid payload")
	}
	scope, err := models.ParseScopeType(p.ScopeType, models.ScopeNote)
	if err != nil {
		return p, models.ScopeKey{}, false, badRequest(err.Error())
	}
	key, ok := s.relayKey(scope, event, p.scopeArgs)
	return p, key, ok, nil
}

func (s *Session) onAttachmentAdded(_ context.Context, data json.RawMessage) error {
	p, key, ok, err := s.decodeAttachment(EvAttachmentAdded, data)
	if err != nil || !ok {
		return err
	}
	if !hasValue(p.Attachment) {
		s.fail(key.Type, EvAttachmentAdded, key.ID, "attachment is required")
		return nil
	}
	s.hub.ToRoom(key, s.client, OutAttachmentAdded, attachmentPayload{
		ScopeRef:   refFor(key),
		ScopeType:  key.Type,
		Attachment: p.Attachment,
		User:       s.client.User,
		Timestamp:  s.svc.timestamp(),
	})
	return nil
}

func (s *Session) onAttachmentDeleted(_ context.Context, data json.RawMessage) error {
	p, key, ok, err := s.decodeAttachment(EvAttachmentDeleted, data)
	if err != nil || !ok {
		return err
	}
	if p.AttachmentID == "" {
		s.fail(key.Type, EvAttachmentDeleted, key.ID, "attachmentId is required")
		return nil
	}
	s.hub.ToRoom(key, s.client, OutAttachmentDeleted, attachmentPayload{
		ScopeRef:     refFor(key),
		ScopeType:    key.Type,
		AttachmentID: p.AttachmentID,
		User:         s.client.User,
		Timestamp:    s.svc.timestamp(),
	})
	return nil
}

func (s *Session) onTaskUpdate(_ context.Context, data json.RawMessage) error {
	var p struct {
		scopeArgs
		Updates json.RawMessage `json:"updates"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return badRequest("invalid payload")
	}
	key, ok := s.relayKey(models.ScopeTask, EvTaskUpdate, p.scopeArgs)
	if !ok {
		return nil
	}
	if !hasValue(p.Updates) {
		return badRequest("updates is required")
	}
	s.hub.ToRoom(key, s.client, OutTaskUpdated, taskUpdatedPayload{
		ScopeRef:  refFor(key),
		Updates:   p.Updates,
		UpdatedBy: s.client.User,
		Timestamp: s.svc.timestamp(),
	})
	return nil
}

func (s *Session) onTaskComment(_ context.Context, data json.RawMessage) error {
	var p struct {
		scopeArgs
		Content       string `json:"content"`
		ParentID      string `json:"parentId"`
		ReplyToUserID string `json:"replyToUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return badRequest("invalid payload")
	}
	key, ok := s.relayKey(models.ScopeTask, EvTaskComment, p.scopeArgs)
	if !ok {
		return nil
	}
	content := htmlsanitize.Comment(p.Content)
	if content == "" {
		return badRequest("comment content is required")
	}
	ts := s.svc.timestamp()
	s.hub.ToRoom(key, s.client, OutTaskCommentAdded, commentPayload{
		ScopeRef: refFor(key),
		Comment: CommentPreview{
			ID:            uuid.NewString(),
			Content:       content,
			ParentID:      p.ParentID,
			ReplyToUserID: p.ReplyToUserID,
			Author:        s.client.User,
			CreatedAt:     ts,
		},
		Timestamp: ts,
	})
	return nil
}

// onCommentDeleted confirms a deletion already made through the REST
// surface to the whole room, sender included.
func (s *Session) onCommentDeleted(_ context.Context, data json.RawMessage) error {
	var p struct {
		scopeArgs
		CommentID string `json:"commentId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return badRequest("invalid payload")
	}
	key, ok := s.relayKey(models.ScopeTask, EvCommentDeleted, p.scopeArgs)
	if !ok {
		return nil
	}
	if p.CommentID == "" {
		return badRequest("commentId is required")
	}
	s.hub.ToRoom(key, nil, OutCommentDeletedOK, commentDeletedPayload{
		ScopeRef:  refFor(key),
		CommentID: p.CommentID,
		DeletedBy: s.client.User,
		Timestamp: s.svc.timestamp(),
	})
	return nil
}
