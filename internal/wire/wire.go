// Package wire implements the newline-delimited JSON frames exchanged
// between chat clients and the server. Each frame is one JSON object per
// line, UTF-8, newline-terminated; JSON string escaping guarantees no frame
// contains an unescaped newline.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimeLayout is the wire format of message timestamps (dd.MM.yyyy HH:mm:ss).
const TimeLayout = "02.01.2006 15:04:05"

// Frame type names as carried in the "type" field.
const (
	TypeLogin        = "login"
	TypeLoginSuccess = "login success"
	TypeLoginFailed  = "login failed"
	TypeUserJoined   = "user joined"
	TypePostMessage  = "post message"
	TypeMessage      = "message"
	TypeUserLeft     = "user left"
)

// ErrMalformedFrame reports input that is not a valid frame: broken JSON,
// a missing or unknown type, or a missing required field.
var ErrMalformedFrame = errors.New("malformed frame")

// Event is a decoded chat frame. Type returns the wire name of the frame
// kind, e.g. "post message".
type Event interface {
	Type() string
}

// Login is the client's request to join the chat under a nickname.
type Login struct {
	Nick string
}

// LoginSuccess acknowledges a successful login.
type LoginSuccess struct{}

// LoginFailed rejects a login attempt whose nickname is already in use.
type LoginFailed struct{}

// UserJoined announces a new participant to the other clients.
type UserJoined struct {
	Nick string
}

// PostMessage is the client's request to broadcast a text message.
type PostMessage struct {
	Content string
}

// Message is a broadcast text message. Time is assigned by the server at
// the moment the message is accepted, formatted with TimeLayout.
type Message struct {
	Nick    string
	Time    string
	Content string
}

// UserLeft announces that a participant disconnected.
type UserLeft struct {
	Nick string
}

func (Login) Type() string        { return TypeLogin }
func (LoginSuccess) Type() string { return TypeLoginSuccess }
func (LoginFailed) Type() string  { return TypeLoginFailed }
func (UserJoined) Type() string   { return TypeUserJoined }
func (PostMessage) Type() string  { return TypePostMessage }
func (Message) Type() string      { return TypeMessage }
func (UserLeft) Type() string     { return TypeUserLeft }

// envelope is the raw JSON shape shared by all seven frame kinds. Pointer
// fields distinguish a missing field from an empty string.
type envelope struct {
	Type    string  `json:"type"`
	Nick    *string `json:"nick,omitempty"`
	Time    *string `json:"time,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Encode renders an event as one frame without the trailing newline. It is
// total for all seven event kinds.
func Encode(ev Event) []byte {
	var env envelope
	env.Type = ev.Type()
	switch e := ev.(type) {
	case Login:
		env.Nick = &e.Nick
	case UserJoined:
		env.Nick = &e.Nick
	case UserLeft:
		env.Nick = &e.Nick
	case PostMessage:
		env.Content = &e.Content
	case Message:
		env.Nick = &e.Nick
		env.Time = &e.Time
		env.Content = &e.Content
	}
	// The envelope holds only strings; marshalling cannot fail.
	out, _ := json.Marshal(env)
	return out
}

// Decode parses one frame line into its typed event. The trailing newline
// must already be stripped.
func Decode(line []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch env.Type {
	case TypeLogin:
		if env.Nick == nil {
			return nil, missingField(env.Type, "nick")
		}
		return Login{Nick: *env.Nick}, nil
	case TypeLoginSuccess:
		return LoginSuccess{}, nil
	case TypeLoginFailed:
		return LoginFailed{}, nil
	case TypeUserJoined:
		if env.Nick == nil {
			return nil, missingField(env.Type, "nick")
		}
		return UserJoined{Nick: *env.Nick}, nil
	case TypePostMessage:
		if env.Content == nil {
			return nil, missingField(env.Type, "content")
		}
		return PostMessage{Content: *env.Content}, nil
	case TypeMessage:
		if env.Nick == nil {
			return nil, missingField(env.Type, "nick")
		}
		if env.Time == nil {
			return nil, missingField(env.Type, "time")
		}
		if env.Content == nil {
			return nil, missingField(env.Type, "content")
		}
		return Message{Nick: *env.Nick, Time: *env.Time, Content: *env.Content}, nil
	case TypeUserLeft:
		if env.Nick == nil {
			return nil, missingField(env.Type, "nick")
		}
		return UserLeft{Nick: *env.Nick}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type field", ErrMalformedFrame)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, env.Type)
	}
}

func missingField(frameType, field string) error {
	return fmt.Errorf("%w: %s frame without %s field", ErrMalformedFrame, frameType, field)
}

// FormatTime renders a timestamp in the wire layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime parses a wire-layout timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
