package collab

import (
	"encoding/json"
	"strings"

	"github.com/dalemusser/collabhub/internal/domain/models"
)

// Inbound event names.
const (
	EvAuthenticate = "authenticate"

	EvJoinNote  = "join-note"
	EvLeaveNote = "leave-note"
	EvJoinTask  = "join-task"
	EvLeaveTask = "leave-task"

	EvNoteContentChange = "note-content-change"
	EvCursorMove        = "cursor-move"
	EvUserTyping        = "user-typing"
	EvTaskTyping        = "task-typing"
	EvCommentTyping     = "comment-typing"
	EvAttachmentAdded   = "attachment-added"
	EvAttachmentDeleted = "attachment-deleted"

	EvTaskStatusUpdate = "task-status-update"
	EvTaskUpdate       = "task-update"
	EvTaskComment      = "task-comment"
	EvCommentDeleted   = "comment-deleted"

	EvShareNote            = "share-note"
	EvShareTask            = "share-task"
	EvRevokeAccess         = "revoke-access"
	EvRevokeTaskAccess     = "revoke-task-access"
	EvRevokeAccessBulk     = "revoke-access-bulk"
	EvRevokeTaskAccessBulk = "revoke-task-access-bulk"

	EvJoinUserRoom = "join-user-room"
)

// Outbound event names.
const (
	OutUserOnline  = "user-online"
	OutUserOffline = "user-offline"
	OutOnlineUsers = "online-users"
	OutUserRoom    = "user-room-joined"

	OutNoteContentUpdated  = "note-content-updated"
	OutCursorUpdated       = "cursor-updated"
	OutUserTypingUpdated   = "user-typing-updated"
	OutTaskTypingUpdated   = "task-typing-updated"
	OutCommentTypingUpdate = "comment-typing-updated"
	OutAttachmentAdded     = "attachment-added-updated"
	OutAttachmentDeleted   = "attachment-deleted-updated"

	OutTaskStatusChanged = "task-status-changed"
	OutTaskUpdateDenied  = "task-update-denied"
	OutTaskUpdateError   = "task-update-error"
	OutTaskUpdated       = "task-updated"
	OutTaskCommentAdded  = "task-comment-added"
	OutCommentDeletedOK  = "comment-deleted-success"

	OutShareSuccess  = "share-success"
	OutShareDenied   = "share-denied"
	OutShareError    = "share-error"
	OutRevokeSuccess = "revoke-success"
	OutRevokeDenied  = "revoke-denied"
	OutRevokeError   = "revoke-error"

	OutError            = "error"
	OutTaskError        = "task-error"
	OutAuthError        = "auth-error"
	OutAccessDeniedNote = "access-denied"
	OutAccessDeniedTask = "task-access-denied"
)

// globalPrefix marks the everyone-broadcast form of a targeted
// notification, e.g. global-task-shared.
const globalPrefix = "global-"

// scopeEvents holds the names that differ only by scope type.
type scopeEvents struct {
	join          string
	leave         string
	userJoined    string
	userLeft      string
	collaborators string
	accessDenied  string
	errorEvent    string
	shared        string
	revoked       string
}

var eventsFor = map[models.ScopeType]scopeEvents{
	models.ScopeNote: {
		join:          EvJoinNote,
		leave:         EvLeaveNote,
		userJoined:    "user-joined-note",
		userLeft:      "user-left-note",
		collaborators: "note-collaborators",
		accessDenied:  OutAccessDeniedNote,
		errorEvent:    OutError,
		shared:        "note-shared",
		revoked:       "note-access-revoked",
	},
	models.ScopeTask: {
		join:          EvJoinTask,
		leave:         EvLeaveTask,
		userJoined:    "user-joined-task",
		userLeft:      "user-left-task",
		collaborators: "task-collaborators",
		accessDenied:  OutAccessDeniedTask,
		errorEvent:    OutTaskError,
		shared:        "task-shared",
		revoked:       "task-access-revoked",
	},
}

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ScopeRef names the scope in outbound payloads as noteId or taskId.
type ScopeRef struct {
	NoteID string `json:"noteId,omitempty"`
	TaskID string `json:"taskId,omitempty"`
}

func refFor(k models.ScopeKey) ScopeRef {
	if k.Type == models.ScopeTask {
		return ScopeRef{TaskID: k.ID}
	}
	return ScopeRef{NoteID: k.ID}
}

// scopeArgs are the id fields accepted on inbound payloads. Clients may
// send scopeId, or the typed noteId / taskId.
type scopeArgs struct {
	ScopeID   string `json:"scopeId"`
	NoteID    string `json:"noteId"`
	TaskID    string `json:"taskId"`
	ScopeType string `json:"scopeType"`
}

func (a scopeArgs) id() string {
	for _, v := range []string{a.ScopeID, a.NoteID, a.TaskID} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// decodeScopeArgs accepts either an object or a bare JSON string id.
func decodeScopeArgs(raw json.RawMessage) (scopeArgs, error) {
	var a scopeArgs
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return a, err
		}
		a.ScopeID = id
		return a, nil
	}
	if trimmed == "" || trimmed == "null" {
		return a, nil
	}
	err := json.Unmarshal(raw, &a)
	return a, err
}

/* ------------------------------ payloads ------------------------------ */

type errorPayload struct {
	ScopeRef
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

type presencePayload struct {
	UserID    string             `json:"userId"`
	User      *models.PublicUser `json:"user,omitempty"`
	Timestamp string             `json:"timestamp"`
}

type onlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

type memberPayload struct {
	ScopeRef
	UserID    string             `json:"userId"`
	User      *models.PublicUser `json:"user,omitempty"`
	Timestamp string             `json:"timestamp"`
}

type collaboratorsPayload struct {
	ScopeRef
	Collaborators []models.PublicUser `json:"collaborators"`
}

type contentPayload struct {
	ScopeRef
	Content        json.RawMessage   `json:"content"`
	CursorPosition json.RawMessage   `json:"cursorPosition,omitempty"`
	UpdatedBy      models.PublicUser `json:"updatedBy"`
	Timestamp      string            `json:"timestamp"`
}

type cursorPayload struct {
	ScopeRef
	Position  json.RawMessage   `json:"position"`
	User      models.PublicUser `json:"user"`
	Timestamp string            `json:"timestamp"`
}

type typingPayload struct {
	ScopeRef
	IsTyping  bool              `json:"isTyping"`
	User      models.PublicUser `json:"user"`
	Timestamp string            `json:"timestamp"`
}

type attachmentPayload struct {
	ScopeRef
	ScopeType    models.ScopeType  `json:"scopeType"`
	Attachment   json.RawMessage   `json:"attachment,omitempty"`
	AttachmentID string            `json:"attachmentId,omitempty"`
	User         models.PublicUser `json:"user"`
	Timestamp    string            `json:"timestamp"`
}

type statusPayload struct {
	ScopeRef
	Status    models.TaskStatus `json:"status"`
	UpdatedBy models.PublicUser `json:"updatedBy"`
	Timestamp string            `json:"timestamp"`
}

type taskUpdatedPayload struct {
	ScopeRef
	Updates   json.RawMessage   `json:"updates"`
	UpdatedBy models.PublicUser `json:"updatedBy"`
	Timestamp string            `json:"timestamp"`
}

// CommentPreview is the transient comment relayed on task-comment. The
// durable comment is written through the REST surface.
type CommentPreview struct {
	ID            string            `json:"id"`
	Content       string            `json:"content"`
	ParentID      string            `json:"parentId,omitempty"`
	ReplyToUserID string            `json:"replyToUserId,omitempty"`
	Author        models.PublicUser `json:"author"`
	CreatedAt     string            `json:"createdAt"`
}

type commentPayload struct {
	ScopeRef
	Comment   CommentPreview `json:"comment"`
	Timestamp string         `json:"timestamp"`
}

type commentDeletedPayload struct {
	ScopeRef
	CommentID string            `json:"commentId"`
	DeletedBy models.PublicUser `json:"deletedBy"`
	Timestamp string            `json:"timestamp"`
}

// Notification is delivered to a share or revoke target.
type Notification struct {
	ScopeRef
	ScopeType    models.ScopeType  `json:"scopeType"`
	TargetUserID string            `json:"targetUserId"`
	Permission   models.Permission `json:"permission,omitempty"`
	By           models.PublicUser `json:"by"`
	Timestamp    string            `json:"timestamp"`
}

type ackPayload struct {
	ScopeRef
	ScopeType    models.ScopeType `json:"scopeType"`
	TargetUserID string           `json:"targetUserId,omitempty"`
	Count        int              `json:"count,omitempty"`
	Denied       int              `json:"denied,omitempty"`
	Failed       int              `json:"failed,omitempty"`
	Message      string           `json:"message,omitempty"`
}
