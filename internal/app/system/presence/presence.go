// Package presence tracks which users currently hold at least one live
// connection. It is best-effort: entries are added on handshake and
// removed on the transport's disconnect signal, with no timeout of its own.
package presence

import (
	"sort"
	"sync"
)

// Tracker maps user id → set of connection ids.
// It is safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	conns map[string]map[string]struct{}
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{conns: make(map[string]map[string]struct{})}
}

// SetOnline records connID for userID. It reports whether this is the
// user's first live connection.
func (t *Tracker) SetOnline(userID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		t.conns[userID] = set
	}
	set[connID] = struct{}{}
	return !ok
}

// SetOffline forgets connID for userID. It reports whether the user has
// no connections left and is therefore offline.
func (t *Tracker) SetOffline(userID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.conns[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) > 0 {
		return false
	}
	delete(t.conns, userID)
	return true
}

// IsOnline reports whether userID has any live connection.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.conns[userID]
	return ok
}

// Online returns a sorted snapshot of online user ids.
func (t *Tracker) Online() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.conns))
	for id := range t.conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of online users.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}
