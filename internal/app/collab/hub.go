package collab

import (
	"encoding/json"
	"sync"

	"github.com/dalemusser/collabhub/internal/app/system/presence"
	"github.com/dalemusser/collabhub/internal/app/system/rooms"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.uber.org/zap"
)

// Hub owns every piece of process-wide real-time state: live clients,
// per-user personal channels, transport room membership, the advisory
// room registries and presence. It is created once at startup and
// injected; there are no package-level registries.
type Hub struct {
	log *zap.Logger

	// mu guards the maps below and each Client's queue, closed flag and
	// rooms. Lock order is mu, then a registry or the presence tracker.
	mu       sync.RWMutex
	clients  map[string]*Client
	personal map[string]map[string]*Client
	members  map[models.ScopeKey]map[string]*Client

	registries map[models.ScopeType]*rooms.Registry
	presence   *presence.Tracker
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	regs := make(map[models.ScopeType]*rooms.Registry, len(models.AllScopeTypes))
	for _, st := range models.AllScopeTypes {
		regs[st] = rooms.New()
	}
	return &Hub{
		log:        logger,
		clients:    make(map[string]*Client),
		personal:   make(map[string]map[string]*Client),
		members:    make(map[models.ScopeKey]map[string]*Client),
		registries: regs,
		presence:   presence.New(),
	}
}

// Registry returns the room registry for one scope type.
func (h *Hub) Registry(scope models.ScopeType) *rooms.Registry {
	return h.registries[scope]
}

// Presence returns the presence tracker.
func (h *Hub) Presence() *presence.Tracker {
	return h.presence
}

// Register adds c, subscribes it to its user's personal channel and
// marks the user online. It reports whether this is the user's first
// live connection.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.subscribeLocked(c)
	return h.presence.SetOnline(c.UserID, c.ID)
}

// Subscribe (re)joins c to its personal channel. It is idempotent.
func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !c.closed {
		h.subscribeLocked(c)
	}
}

func (h *Hub) subscribeLocked(c *Client) {
	set, ok := h.personal[c.UserID]
	if !ok {
		set = make(map[string]*Client)
		h.personal[c.UserID] = set
	}
	set[c.ID] = c
}

// Unregister removes c from the personal channel and closes its
// outbound queue. Room membership must already be released with
// LeaveRoom. It reports whether the user has no connections left.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	delete(h.clients, c.ID)
	if set, ok := h.personal[c.UserID]; ok {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(h.personal, c.UserID)
		}
	}
	return h.presence.SetOffline(c.UserID, c.ID)
}

// RoomOf returns the scope id c has joined for the given type.
func (h *Hub) RoomOf(c *Client, scope models.ScopeType) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := c.rooms[scope]
	return id, ok
}

// JoinRoom adds c to the transport room for key and records the user in
// the registry. Callers leave any previous room of the same type first.
// It reports whether the user is new to the room: false when c is
// already there or another of the user's connections is.
func (h *Hub) JoinRoom(c *Client, key models.ScopeKey) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.members[key]
	if !ok {
		set = make(map[string]*Client)
		h.members[key] = set
	}
	if _, in := set[c.ID]; in {
		return false
	}
	set[c.ID] = c
	c.rooms[key.Type] = key.ID
	return h.registries[key.Type].Join(key.ID, c.UserID)
}

// LeaveRoom removes c from the transport room for key. The user leaves
// the registry only once none of their connections remain in the room,
// which is what the returned bool reports. A client that was not in the
// room yields false.
func (h *Hub) LeaveRoom(c *Client, key models.ScopeKey) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.members[key]
	if !ok {
		return false
	}
	if _, in := set[c.ID]; !in {
		return false
	}
	delete(set, c.ID)
	if len(set) == 0 {
		delete(h.members, key)
	}
	if c.rooms[key.Type] == key.ID {
		delete(c.rooms, key.Type)
	}
	for _, other := range set {
		if other.UserID == c.UserID {
			return false
		}
	}
	return h.registries[key.Type].Leave(key.ID, c.UserID)
}

// RoomClientsOf returns the connections of userID that are in the room.
func (h *Hub) RoomClientsOf(key models.ScopeKey, userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, c := range h.members[key] {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

/* ------------------------------ delivery ------------------------------ */

// Encode builds one wire frame.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// deliverLocked queues b on c without blocking. A full queue drops the
// frame; delivery is at-most-once. h.mu must be held.
func (h *Hub) deliverLocked(c *Client, event string, b []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		h.log.Warn("outbound queue full; dropping frame",
			zap.String("conn_id", c.ID),
			zap.String("user_id", c.UserID),
			zap.String("event", event))
		return false
	}
}

// fanout encodes once and delivers to every client pick returns.
func (h *Hub) fanout(event string, data any, pick func() []*Client) int {
	b, err := Encode(event, data)
	if err != nil {
		h.log.Error("encode outbound event", zap.String("event", event), zap.Error(err))
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range pick() {
		if h.deliverLocked(c, event, b) {
			n++
		}
	}
	return n
}

// Send delivers one event to a single connection.
func (h *Hub) Send(c *Client, event string, data any) bool {
	return h.fanout(event, data, func() []*Client { return []*Client{c} }) == 1
}

// ToRoom delivers to every connection in the room except skip, which may
// be nil. It returns the number of frames queued.
func (h *Hub) ToRoom(key models.ScopeKey, skip *Client, event string, data any) int {
	return h.fanout(event, data, func() []*Client {
		out := make([]*Client, 0, len(h.members[key]))
		for _, c := range h.members[key] {
			if c != skip {
				out = append(out, c)
			}
		}
		return out
	})
}

// ToUser delivers to every connection subscribed to userID's personal
// channel.
func (h *Hub) ToUser(userID, event string, data any) int {
	return h.fanout(event, data, func() []*Client {
		out := make([]*Client, 0, len(h.personal[userID]))
		for _, c := range h.personal[userID] {
			out = append(out, c)
		}
		return out
	})
}

// ToAll delivers to every live connection except skip.
func (h *Hub) ToAll(skip *Client, event string, data any) int {
	return h.fanout(event, data, func() []*Client {
		out := make([]*Client, 0, len(h.clients))
		for _, c := range h.clients {
			if c != skip {
				out = append(out, c)
			}
		}
		return out
	})
}

/* -------------------------------- stats -------------------------------- */

// Stats is a point-in-time view of hub occupancy.
type Stats struct {
	Connections int `json:"connections"`
	OnlineUsers int `json:"online_users"`
	NoteRooms   int `json:"note_rooms"`
	TaskRooms   int `json:"task_rooms"`
}

// Stats returns current counts.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	conns := len(h.clients)
	h.mu.RUnlock()
	return Stats{
		Connections: conns,
		OnlineUsers: h.presence.Len(),
		NoteRooms:   h.registries[models.ScopeNote].Len(),
		TaskRooms:   h.registries[models.ScopeTask].Len(),
	}
}
