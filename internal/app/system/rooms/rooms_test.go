package rooms_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/rooms"
)

func TestJoinAndMembers(t *testing.T) {
	r := rooms.New()

	if !r.Join("n1", "bob") || !r.Join("n1", "alice") {
		t.Fatal("first join of a user should report true")
	}
	if r.Join("n1", "alice") {
		t.Error("duplicate join should report false")
	}

	got := r.Members("n1")
	want := []string{"alice", "bob"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
}

func TestMembers_UnknownScope(t *testing.T) {
	r := rooms.New()
	if got := r.Members("missing"); len(got) != 0 {
		t.Errorf("Members(missing) = %v, want empty", got)
	}
}

func TestLeave_RemovesEmptyScope(t *testing.T) {
	r := rooms.New()
	r.Join("n1", "alice")
	r.Join("n1", "bob")

	if !r.Leave("n1", "alice") {
		t.Fatal("Leave(alice) = false, want true")
	}
	if r.Len() != 1 {
		t.Fatal("scope removed while bob is still a member")
	}

	r.Leave("n1", "bob")
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if got := r.Members("n1"); len(got) != 0 {
		t.Errorf("Members after cleanup = %v, want empty", got)
	}
}

func TestLeave_NotMember(t *testing.T) {
	r := rooms.New()
	r.Join("n1", "alice")

	if r.Leave("n1", "carol") {
		t.Error("Leave(carol) = true for a non-member")
	}
	if r.Leave("n2", "alice") {
		t.Error("Leave on unknown scope = true")
	}
	if r.Members("n1") == nil {
		t.Error("unrelated leave removed scope n1")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	notes := rooms.New()
	tasks := rooms.New()

	notes.Join("42", "alice")
	if tasks.Members("42") != nil {
		t.Error("task registry sees note membership for the same id")
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	r := rooms.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := string(rune('a' + i%26))
			r.Join("n1", user)
			r.Leave("n1", user)
		}(i)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("scope still present after all joins were undone: %v", r.Members("n1"))
	}
}
