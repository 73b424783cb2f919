package chat

import (
	"io"
	"log/slog"
	"sync"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(nick string) *Session {
	return newSession(nick, "test-conn", newFrameWriter(io.Discard))
}

func TestRegistry_TryRegisterRejectsDuplicateNickname(t *testing.T) {
	r := NewRegistry(discardLogger())

	alice := testSession("alice")
	if !r.TryRegister(alice) {
		t.Fatal("first registration of alice should succeed")
	}
	if !r.TryRegister(testSession("bob")) {
		t.Fatal("registration of bob should succeed")
	}

	impostor := testSession("alice")
	if r.TryRegister(impostor) {
		t.Fatal("second registration of alice should fail")
	}
	if got := r.Len(); got != 2 {
		t.Fatalf("failing registration mutated the registry: len = %d, want 2", got)
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry(discardLogger())

	alice := testSession("alice")
	r.TryRegister(alice)

	r.Remove(alice)
	if got := r.Len(); got != 0 {
		t.Fatalf("len after remove = %d, want 0", got)
	}

	// Removing again, or removing a session that was never registered,
	// must be a no-op.
	r.Remove(alice)
	r.Remove(testSession("ghost"))
	if got := r.Len(); got != 0 {
		t.Fatalf("len after repeated remove = %d, want 0", got)
	}
}

func TestRegistry_RemoveOnlyEvictsTheSameSession(t *testing.T) {
	r := NewRegistry(discardLogger())

	first := testSession("alice")
	r.TryRegister(first)
	r.Remove(first)

	second := testSession("alice")
	if !r.TryRegister(second) {
		t.Fatal("nickname should be free after removal")
	}

	// A stale remove for the first session must not evict the second one
	// that reused the nickname.
	r.Remove(first)
	if got := r.Len(); got != 1 {
		t.Fatalf("stale remove evicted the new session: len = %d, want 1", got)
	}
}

func TestRegistry_SnapshotOthersExcludesAndKeepsOrder(t *testing.T) {
	r := NewRegistry(discardLogger())

	alice := testSession("alice")
	bob := testSession("bob")
	carol := testSession("carol")
	for _, s := range []*Session{alice, bob, carol} {
		if !r.TryRegister(s) {
			t.Fatalf("registration of %s failed", s.Nickname())
		}
	}

	others := r.SnapshotOthers(bob)
	if len(others) != 2 || others[0] != alice || others[1] != carol {
		t.Fatalf("unexpected snapshot: %v", nicknames(others))
	}

	all := r.SnapshotOthers(nil)
	if len(all) != 3 || all[0] != alice || all[1] != bob || all[2] != carol {
		t.Fatalf("unexpected full snapshot: %v", nicknames(all))
	}

	// The snapshot is a point-in-time view; mutating the registry
	// afterwards must not change it.
	r.Remove(carol)
	if len(all) != 3 {
		t.Fatal("snapshot changed after removal")
	}
}

func TestRegistry_ConcurrentRegistrationOfSameNickname(t *testing.T) {
	r := NewRegistry(discardLogger())

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan *Session, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := testSession("alice")
			if r.TryRegister(s) {
				wins <- s
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Fatalf("%d registrations of the same nickname succeeded, want exactly 1", winners)
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("registry len = %d, want 1", got)
	}
}

func nicknames(sessions []*Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.Nickname()
	}
	return out
}
