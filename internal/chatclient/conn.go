// Package chatclient implements the client side of the chat protocol: the
// network connection that speaks newline-delimited JSON frames with the
// server, and the observable model that buffers display-ready entries for
// a view.
package chatclient

import (
	"bufio"
	"bytes"
	"log/slog"
	"net"
	"sync"

	"github.com/TorellinX/SEP-Chat/internal/wire"
)

// EventSink receives decoded server frames in arrival order. *Model
// implements it.
type EventSink interface {
	LoggedIn()
	LoginFailed()
	UserJoined(nick string)
	UserLeft(nick string)
	AddTextMessage(nick, timestamp, content string)
}

// Conn is the client's network connection. A single goroutine owns the
// inbound side, decoding frames and dispatching them to the sink; outbound
// writes are serialized by a mutex.
type Conn struct {
	conn   net.Conn
	sink   EventSink
	logger *slog.Logger
	done   chan struct{}

	mu sync.Mutex
	w  *bufio.Writer
}

// Dial connects to the server and starts the read loop.
func Dial(addr string, sink EventSink, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		conn:   nc,
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
		w:      bufio.NewWriter(nc),
	}
	go c.readLoop()
	return c, nil
}

// SendLogin sends a login request with the given nickname.
func (c *Conn) SendLogin(nick string) error {
	return c.writeFrame(wire.Login{Nick: nick})
}

// SendMessage asks the server to broadcast a text message.
func (c *Conn) SendMessage(content string) error {
	return c.writeFrame(wire.PostMessage{Content: content})
}

// Close shuts the connection down; the read loop exits and Done is closed.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Done is closed when the read loop has exited, either because Close was
// called or because the server went away.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) writeFrame(ev wire.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.w.Write(wire.Encode(ev)); err != nil {
		return err
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer func() {
		_ = c.conn.Close()
	}()

	r := bufio.NewReader(c.conn)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}
		ev, err := wire.Decode(bytes.TrimRight(line, "\r\n"))
		if err != nil {
			c.logger.Warn("dropping malformed server frame", "error", err)
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Conn) dispatch(ev wire.Event) {
	switch e := ev.(type) {
	case wire.LoginSuccess:
		c.sink.LoggedIn()
	case wire.LoginFailed:
		c.sink.LoginFailed()
	case wire.UserJoined:
		c.sink.UserJoined(e.Nick)
	case wire.UserLeft:
		c.sink.UserLeft(e.Nick)
	case wire.Message:
		c.sink.AddTextMessage(e.Nick, e.Time, e.Content)
	default:
		// login / post message are client-to-server only
		c.logger.Warn("ignoring unexpected server frame", "type", ev.Type())
	}
}
