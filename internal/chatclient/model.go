package chatclient

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/TorellinX/SEP-Chat/internal/wire"
)

// ErrNotConnected is returned when the model is asked to send before a
// network connection was attached with SetConnection.
var ErrNotConnected = errors.New("chatclient: no connection attached")

// EntryKind distinguishes the display-ready entry types a view can render.
type EntryKind int

const (
	EntryLoggedIn EntryKind = iota
	EntryUserJoined
	EntryUserLeft
	EntryTextMessage
)

// Entry is one display-ready line of chat history.
type Entry struct {
	Kind    EntryKind
	Nick    string
	Time    string // wire.TimeLayout, text messages only
	Content string // text messages only
}

// Listener is notified about model state changes. Callbacks fire after the
// model's state is fully updated, synchronously and in subscription order,
// and per connection they observe events in arrival order.
type Listener interface {
	LoggedIn()
	LoginFailed()
	EntryAdded(Entry)
}

// Sender is the outbound half of the network connection the model drives.
// *Conn implements it.
type Sender interface {
	SendLogin(nick string) error
	SendMessage(content string) error
}

// Model manages the internal state of a single chat client: the nickname,
// the buffered chat entries, and the subscribed listeners.
type Model struct {
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	conn      Sender
	nickname  string
	entries   []Entry
	listeners []Listener
}

func NewModel(logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{logger: logger, now: time.Now}
}

// SetConnection attaches the network connection the model sends through.
func (m *Model) SetConnection(conn Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = conn
}

// Subscribe registers a listener for model change notifications.
func (m *Model) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Unsubscribe removes a previously subscribed listener.
func (m *Model) Unsubscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, reg := range m.listeners {
		if reg == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Entries returns a copy of all buffered chat entries.
func (m *Model) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Nickname returns the name chosen at the last login attempt.
func (m *Model) Nickname() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nickname
}

// LogInWithName stores the chosen nickname and sends the login request.
func (m *Model) LogInWithName(nick string) error {
	m.mu.Lock()
	m.nickname = nick
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.SendLogin(nick)
}

// PostMessage sends a text message to the server and echoes it into the
// local history: the server fans the message out to the other participants
// only, so the sender's own copy never comes back over the network.
func (m *Model) PostMessage(text string) error {
	m.mu.Lock()
	conn := m.conn
	nick := m.nickname
	m.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	if err := conn.SendMessage(text); err != nil {
		return err
	}
	m.AddTextMessage(nick, wire.FormatTime(m.now()), text)
	return nil
}

// LoggedIn records a successful login and notifies the listeners. Called
// by the network layer.
func (m *Model) LoggedIn() {
	m.mu.Lock()
	entry := Entry{Kind: EntryLoggedIn, Nick: m.nickname}
	m.entries = append(m.entries, entry)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l.LoggedIn()
	}
	for _, l := range listeners {
		l.EntryAdded(entry)
	}
}

// LoginFailed notifies the listeners that the login attempt was rejected.
// No entry is recorded; the user is expected to pick another name.
func (m *Model) LoginFailed() {
	m.mu.Lock()
	m.logger.Info("login rejected", "nick", m.nickname)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l.LoginFailed()
	}
}

// UserJoined records that another participant entered the chat.
func (m *Model) UserJoined(nick string) {
	m.addEntry(Entry{Kind: EntryUserJoined, Nick: nick})
}

// UserLeft records that a participant left the chat.
func (m *Model) UserLeft(nick string) {
	m.addEntry(Entry{Kind: EntryUserLeft, Nick: nick})
}

// AddTextMessage records a chat message. Called by the network layer for
// other participants' messages and by PostMessage for the local echo.
func (m *Model) AddTextMessage(nick, timestamp, content string) {
	m.addEntry(Entry{Kind: EntryTextMessage, Nick: nick, Time: timestamp, Content: content})
}

func (m *Model) addEntry(entry Entry) {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	// Notify outside the lock so a listener may call back into the model.
	for _, l := range listeners {
		l.EntryAdded(entry)
	}
}

func (m *Model) snapshotListeners() []Listener {
	out := make([]Listener, len(m.listeners))
	copy(out, m.listeners)
	return out
}
