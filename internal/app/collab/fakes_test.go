package collab_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/collabhub/internal/app/collab"
	"github.com/dalemusser/collabhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/* ------------------------------- gate ------------------------------- */

type fakeGate struct {
	mu    sync.Mutex
	perms map[string]models.Permission
	err   error
}

func newFakeGate() *fakeGate {
	return &fakeGate{perms: make(map[string]models.Permission)}
}

func gateKey(scope models.ScopeType, scopeID, userID string) string {
	return string(scope) + ":" + scopeID + ":" + userID
}

func (g *fakeGate) grant(scope models.ScopeType, scopeID, userID string, p models.Permission) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.perms[gateKey(scope, scopeID, userID)] = p
}

func (g *fakeGate) revoke(scope models.ScopeType, scopeID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.perms, gateKey(scope, scopeID, userID))
}

func (g *fakeGate) lookup(scope models.ScopeType, userID, scopeID string) (models.Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.perms[gateKey(scope, scopeID, userID)], nil
}

func (g *fakeGate) CanAccess(_ context.Context, scope models.ScopeType, userID, scopeID string) (bool, error) {
	p, err := g.lookup(scope, userID, scopeID)
	return p != "", err
}

func (g *fakeGate) CanEdit(_ context.Context, scope models.ScopeType, userID, scopeID string) (bool, error) {
	p, err := g.lookup(scope, userID, scopeID)
	return p == models.PermissionEdit, err
}

/* ----------------------------- directory ----------------------------- */

type fakeDirectory struct {
	mu    sync.Mutex
	users map[string]models.PublicUser
	panic bool
}

func (d *fakeDirectory) add(u models.PublicUser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *fakeDirectory) FetchMany(_ context.Context, ids []string) ([]models.PublicUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panic {
		panic("directory exploded")
	}
	out := []models.PublicUser{}
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

/* ------------------------------- tasks ------------------------------- */

type fakeTasks struct {
	mu     sync.Mutex
	status map[primitive.ObjectID]models.TaskStatus
	writes int
}

func (f *fakeTasks) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.status[id]; !ok {
		return nil, mongo.ErrNoDocuments
	}
	f.writes++
	f.status[id] = status
	return &models.Task{ID: id, Status: status}, nil
}

func (f *fakeTasks) get(id primitive.ObjectID) models.TaskStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status[id]
}

/* ------------------------------ harness ------------------------------ */

type harness struct {
	svc   *collab.Service
	gate  *fakeGate
	users *fakeDirectory
	tasks *fakeTasks
}

func newHarness(t *testing.T, mode collab.NotifyMode) *harness {
	t.Helper()
	h := &harness{
		gate:  newFakeGate(),
		users: &fakeDirectory{users: make(map[string]models.PublicUser)},
		tasks: &fakeTasks{status: make(map[primitive.ObjectID]models.TaskStatus)},
	}
	h.svc = collab.NewService(h.gate, h.users, h.tasks, mode, zap.NewNop())
	h.svc.SetClock(func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) })
	return h
}

// connect opens a session for a user and discards the connect chatter.
func (h *harness) connect(t *testing.T, id, name string) *collab.Session {
	t.Helper()
	u := models.PublicUser{ID: id, Name: name, Email: name + "@example.com"}
	h.users.add(u)
	s := h.svc.NewSession(collab.NewClient(u, 64))
	s.Open()
	drain(s)
	return s
}

type frame struct {
	Event string
	Data  map[string]any
}

// drain returns every queued frame without blocking.
func drain(s *collab.Session) []frame {
	var out []frame
	for {
		select {
		case b, ok := <-s.Client().Outbound():
			if !ok {
				return out
			}
			var env collab.Envelope
			if err := json.Unmarshal(b, &env); err != nil {
				panic(err)
			}
			f := frame{Event: env.Event}
			_ = json.Unmarshal(env.Data, &f.Data)
			out = append(out, f)
		default:
			return out
		}
	}
}

func only(frames []frame, event string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func names(frames []frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Event
	}
	return out
}

func emit(t *testing.T, s *collab.Session, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	s.Dispatch(context.Background(), event, raw)
}

func joinNote(t *testing.T, s *collab.Session, id string) {
	t.Helper()
	emit(t, s, collab.EvJoinNote, map[string]string{"scopeId": id})
}

func joinTask(t *testing.T, s *collab.Session, id string) {
	t.Helper()
	emit(t, s, collab.EvJoinTask, map[string]string{"scopeId": id})
}
