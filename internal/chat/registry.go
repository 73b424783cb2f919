package chat

import (
	"log/slog"
	"sync"
)

// Registry is the process-wide set of active sessions, keyed by nickname.
// It is the sole authority for the "nickname already in use" decision; the
// check and the insert happen under one lock, so two connections can never
// register the same name concurrently.
type Registry struct {
	logger *slog.Logger

	mu      sync.Mutex
	byNick  map[string]*Session
	ordered []*Session // registration order, for snapshot enumeration
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		byNick: make(map[string]*Session),
	}
}

// TryRegister atomically inserts the session unless its nickname is held by
// a currently registered session. It returns false, with no mutation, when
// the name is taken.
func (r *Registry) TryRegister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNick[s.Nickname()]; taken {
		return false
	}
	r.byNick[s.Nickname()] = s
	r.ordered = append(r.ordered, s)
	ConnectedClients.Set(float64(len(r.ordered)))

	r.logger.Info("user registered", "nick", s.Nickname(), "conn_id", s.ID())
	return true
}

// Remove deletes the session from the registry. It is idempotent: removing
// a session that is not present is a no-op, and a session only ever removes
// itself, never a later session that reused the nickname.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byNick[s.Nickname()]
	if !ok || cur != s {
		return
	}
	delete(r.byNick, s.Nickname())
	for i, reg := range r.ordered {
		if reg == s {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	ConnectedClients.Set(float64(len(r.ordered)))

	r.logger.Info("user removed", "nick", s.Nickname(), "conn_id", s.ID())
}

// SnapshotOthers returns all registered sessions except excluding (nil
// excludes nothing), in registration order at the time of the call. The
// snapshot is a point-in-time view: later registrations and removals do not
// affect it.
func (r *Registry) SnapshotOthers(excluding *Session) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.ordered))
	for _, s := range r.ordered {
		if s != excluding {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordered)
}
