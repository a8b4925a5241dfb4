// Package rooms keeps the advisory set of users currently viewing each
// scope of one type. Membership is bookkeeping for presence and
// broadcast only; it is never used to decide authorization.
package rooms

import (
	"sort"
	"sync"
)

// Registry maps scope id → set of user ids for a single scope type.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	members map[string]map[string]struct{}
}

// New creates an empty registry. The hub keeps one per scope type.
func New() *Registry {
	return &Registry{members: make(map[string]map[string]struct{})}
}

// Join adds userID to the scope's member set, creating the set if absent.
// It reports whether the user was newly added; joining twice is a no-op.
func (r *Registry) Join(scopeID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[scopeID]
	if !ok {
		set = make(map[string]struct{})
		r.members[scopeID] = set
	}
	if _, was := set[userID]; was {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Leave removes userID from the scope. When the set becomes empty the
// scope entry is deleted so abandoned scopes do not accumulate.
// It reports whether the user was a member.
func (r *Registry) Leave(scopeID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[scopeID]
	if !ok {
		return false
	}
	if _, was := set[userID]; !was {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(r.members, scopeID)
	}
	return true
}

// Members returns a sorted snapshot of the user ids in the scope.
// An unknown scope yields an empty (nil) slice.
func (r *Registry) Members(scopeID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[scopeID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of scopes with at least one member.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
