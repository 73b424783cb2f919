package chatclient

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/TorellinX/SEP-Chat/internal/wire"
)

type fakeSender struct {
	logins   []string
	messages []string
	err      error
}

func (f *fakeSender) SendLogin(nick string) error {
	f.logins = append(f.logins, nick)
	return f.err
}

func (f *fakeSender) SendMessage(content string) error {
	f.messages = append(f.messages, content)
	return f.err
}

type recordingListener struct {
	calls   []string
	entries []Entry
}

func (r *recordingListener) LoggedIn()    { r.calls = append(r.calls, "logged in") }
func (r *recordingListener) LoginFailed() { r.calls = append(r.calls, "login failed") }
func (r *recordingListener) EntryAdded(e Entry) {
	r.calls = append(r.calls, "entry added")
	r.entries = append(r.entries, e)
}

func newTestModel() (*Model, *fakeSender, *recordingListener) {
	m := NewModel(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sender := &fakeSender{}
	m.SetConnection(sender)
	listener := &recordingListener{}
	m.Subscribe(listener)
	return m, sender, listener
}

func TestModel_LogInWithNameSendsLogin(t *testing.T) {
	m, sender, _ := newTestModel()

	if err := m.LogInWithName("alice"); err != nil {
		t.Fatalf("LogInWithName: %v", err)
	}
	if len(sender.logins) != 1 || sender.logins[0] != "alice" {
		t.Fatalf("sent logins = %v, want [alice]", sender.logins)
	}
	if got := m.Nickname(); got != "alice" {
		t.Fatalf("Nickname = %q, want alice", got)
	}
}

func TestModel_LoggedInNotifiesAndRecordsEntry(t *testing.T) {
	m, _, listener := newTestModel()
	_ = m.LogInWithName("alice")

	m.LoggedIn()

	wantCalls := []string{"logged in", "entry added"}
	if len(listener.calls) != 2 || listener.calls[0] != wantCalls[0] || listener.calls[1] != wantCalls[1] {
		t.Fatalf("listener calls = %v, want %v", listener.calls, wantCalls)
	}
	entries := m.Entries()
	if len(entries) != 1 || entries[0] != (Entry{Kind: EntryLoggedIn, Nick: "alice"}) {
		t.Fatalf("entries = %#v", entries)
	}
}

func TestModel_LoginFailedRecordsNoEntry(t *testing.T) {
	m, _, listener := newTestModel()
	_ = m.LogInWithName("alice")

	m.LoginFailed()

	if len(listener.calls) != 1 || listener.calls[0] != "login failed" {
		t.Fatalf("listener calls = %v, want [login failed]", listener.calls)
	}
	if got := len(m.Entries()); got != 0 {
		t.Fatalf("entries after failed login = %d, want 0", got)
	}
}

func TestModel_PostMessageEchoesLocally(t *testing.T) {
	m, sender, listener := newTestModel()
	at := time.Date(2023, time.March, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }
	_ = m.LogInWithName("alice")

	if err := m.PostMessage("hi"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	if len(sender.messages) != 1 || sender.messages[0] != "hi" {
		t.Fatalf("sent messages = %v, want [hi]", sender.messages)
	}
	want := Entry{Kind: EntryTextMessage, Nick: "alice", Time: wire.FormatTime(at), Content: "hi"}
	entries := m.Entries()
	if len(entries) != 1 || entries[0] != want {
		t.Fatalf("entries = %#v, want [%#v]", entries, want)
	}
	if len(listener.entries) != 1 || listener.entries[0] != want {
		t.Fatalf("listener entries = %#v", listener.entries)
	}
}

func TestModel_PostMessageSendFailureIsNotEchoed(t *testing.T) {
	m, sender, _ := newTestModel()
	sender.err = io.ErrClosedPipe
	_ = m.LogInWithName("alice")

	if err := m.PostMessage("hi"); err == nil {
		t.Fatal("expected send error")
	}
	if got := len(m.Entries()); got != 0 {
		t.Fatalf("entries after failed send = %d, want 0", got)
	}
}

func TestModel_PresenceEntriesPreserveArrivalOrder(t *testing.T) {
	m, _, listener := newTestModel()

	m.UserJoined("bob")
	m.AddTextMessage("bob", "01.03.2023 12:00:00", "hello")
	m.UserLeft("bob")

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %#v, want 3", entries)
	}
	wantKinds := []EntryKind{EntryUserJoined, EntryTextMessage, EntryUserLeft}
	for i, kind := range wantKinds {
		if entries[i].Kind != kind {
			t.Fatalf("entry %d kind = %v, want %v", i, entries[i].Kind, kind)
		}
	}
	if len(listener.entries) != 3 {
		t.Fatalf("listener saw %d entries, want 3", len(listener.entries))
	}
}

func TestModel_ListenerSeesFullyUpdatedState(t *testing.T) {
	m, _, _ := newTestModel()

	// A listener may read the model from inside a callback; the entry it
	// was notified about must already be visible.
	probe := &stateProbe{model: m}
	m.Subscribe(probe)

	m.UserJoined("bob")
	if !probe.sawOwnEntry {
		t.Fatal("listener did not observe the entry it was notified about")
	}
}

type stateProbe struct {
	model       *Model
	sawOwnEntry bool
}

func (p *stateProbe) LoggedIn()    {}
func (p *stateProbe) LoginFailed() {}
func (p *stateProbe) EntryAdded(e Entry) {
	for _, got := range p.model.Entries() {
		if got == e {
			p.sawOwnEntry = true
		}
	}
}

func TestModel_SendingWithoutConnectionReturnsError(t *testing.T) {
	m := NewModel(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := m.LogInWithName("alice"); err != ErrNotConnected {
		t.Fatalf("LogInWithName error = %v, want ErrNotConnected", err)
	}
	if err := m.PostMessage("hi"); err != ErrNotConnected {
		t.Fatalf("PostMessage error = %v, want ErrNotConnected", err)
	}
	if got := len(m.Entries()); got != 0 {
		t.Fatalf("entries after unconnected sends = %d, want 0", got)
	}
}

func TestModel_Unsubscribe(t *testing.T) {
	m, _, listener := newTestModel()

	m.Unsubscribe(listener)
	m.UserJoined("bob")

	if len(listener.calls) != 0 {
		t.Fatalf("unsubscribed listener was notified: %v", listener.calls)
	}
}
