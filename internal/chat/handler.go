package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TorellinX/SEP-Chat/internal/wire"
)

// Handler drives the protocol state machine for one accepted connection:
// unauthenticated until a login succeeds, then authenticated until the
// socket closes. It is the only reader of its socket and runs on its own
// goroutine.
type Handler struct {
	conn   net.Conn
	connID string
	reg    *Registry
	bc     *Broadcaster
	logger *slog.Logger
	now    func() time.Time // message timestamps, overridable in tests
}

func NewHandler(conn net.Conn, reg *Registry, bc *Broadcaster, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		conn:   conn,
		connID: uuid.NewString(),
		reg:    reg,
		bc:     bc,
		logger: logger,
		now:    time.Now,
	}
}

// ID returns the connection id assigned at accept time.
func (h *Handler) ID() string { return h.connID }

// Run reads frames until the connection closes. Errors never escape the
// handler: a connection that fails only takes itself down.
func (h *Handler) Run() {
	defer func() {
		_ = h.conn.Close()
	}()

	out := newFrameWriter(h.conn)
	reader := bufio.NewReader(h.conn)

	sess, err := h.negotiateLogin(reader, out)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			h.logger.Warn("closing unauthenticated connection", "conn_id", h.connID, "error", err)
		}
		// No session was registered, so nobody is told anything.
		return
	}

	if err := sess.Send(wire.LoginSuccess{}); err != nil {
		h.logger.Warn("login success reply failed", "conn_id", h.connID, "error", err)
	}
	h.bc.Notify(wire.UserJoined{Nick: sess.Nickname()}, sess)

	h.serve(reader, sess)

	h.reg.Remove(sess)
	h.bc.Notify(wire.UserLeft{Nick: sess.Nickname()}, nil)
}

// negotiateLogin loops in the unauthenticated state until a login frame
// with a free nickname arrives. A blank nickname is dropped without a
// reply: the stock client re-prompts locally and never sends one, so the
// silence is part of the protocol. A taken nickname is answered with
// "login failed" and the connection stays open for another attempt. Any
// other frame kind, or a malformed line, is fatal.
func (h *Handler) negotiateLogin(reader *bufio.Reader, out *frameWriter) (*Session, error) {
	for {
		line, err := readLine(reader)
		if err != nil {
			return nil, err
		}
		ev, err := wire.Decode(line)
		if err != nil {
			return nil, err
		}
		login, ok := ev.(wire.Login)
		if !ok {
			return nil, fmt.Errorf("expected login, got %q frame", ev.Type())
		}
		FramesTotal.WithLabelValues(wire.TypeLogin).Inc()

		nick := strings.TrimSpace(login.Nick)
		if nick == "" {
			LoginAttempts.WithLabelValues("blank").Inc()
			continue
		}

		sess := newSession(nick, h.connID, out)
		if !h.reg.TryRegister(sess) {
			LoginAttempts.WithLabelValues("taken").Inc()
			h.logger.Info("nickname taken", "nick", nick, "conn_id", h.connID)
			if err := out.writeFrame(wire.Encode(wire.LoginFailed{})); err != nil {
				return nil, err
			}
			continue
		}
		LoginAttempts.WithLabelValues("success").Inc()
		return sess, nil
	}
}

// serve is the authenticated read loop. The only acceptable inbound frame
// is "post message"; the handshake is not renegotiable, so a second login
// (or anything else) terminates the connection.
func (h *Handler) serve(reader *bufio.Reader, sess *Session) {
	for {
		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Info("connection read failed",
					"nick", sess.Nickname(), "conn_id", h.connID, "error", err)
			}
			return
		}
		ev, err := wire.Decode(line)
		if err != nil {
			h.logger.Warn("malformed frame, closing connection",
				"nick", sess.Nickname(), "conn_id", h.connID, "error", err)
			return
		}
		post, ok := ev.(wire.PostMessage)
		if !ok {
			h.logger.Warn("protocol violation, closing connection",
				"nick", sess.Nickname(), "conn_id", h.connID, "type", ev.Type())
			return
		}
		FramesTotal.WithLabelValues(wire.TypePostMessage).Inc()

		h.bc.Notify(wire.Message{
			Nick:    sess.Nickname(),
			Time:    wire.FormatTime(h.now()),
			Content: post.Content,
		}, sess)
	}
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err == nil {
		return trimEOL(line), nil
	}
	if err == io.EOF && len(line) > 0 {
		// last line without newline
		return trimEOL(line), nil
	}
	if err == io.EOF {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("read: %w", err)
}

func trimEOL(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
