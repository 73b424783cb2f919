package chat

import "github.com/TorellinX/SEP-Chat/internal/wire"

// Session is the server-side record of one authenticated, currently
// connected participant. It exists only after a successful login and is
// discarded when the owning connection closes. The nickname is immutable
// and unique among registered sessions.
type Session struct {
	nickname string
	connID   string // accept-time uuid, for log correlation
	out      *frameWriter
}

func newSession(nickname, connID string, out *frameWriter) *Session {
	return &Session{nickname: nickname, connID: connID, out: out}
}

// Nickname returns the participant's chosen name.
func (s *Session) Nickname() string { return s.nickname }

// ID returns the connection id assigned when the socket was accepted.
func (s *Session) ID() string { return s.connID }

// Send encodes the event and writes it as one frame. Safe for concurrent
// use; writes to the same session never interleave.
func (s *Session) Send(ev wire.Event) error {
	return s.out.writeFrame(wire.Encode(ev))
}
