package chat

import (
	"log/slog"

	"github.com/TorellinX/SEP-Chat/internal/wire"
)

// Broadcaster fans an event out to every registered session except an
// optional originator.
type Broadcaster struct {
	reg    *Registry
	logger *slog.Logger
}

func NewBroadcaster(reg *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{reg: reg, logger: logger}
}

// Notify encodes the event once and writes it to every session in a
// point-in-time registry snapshot, excluding the given session (nil
// excludes nothing). A write failure to one recipient is logged and that
// recipient skipped; delivery to the remaining recipients continues, and
// the failed recipient stays registered until its own handler observes the
// dead socket.
func (b *Broadcaster) Notify(ev wire.Event, excluding *Session) {
	frame := wire.Encode(ev)
	BroadcastsTotal.WithLabelValues(ev.Type()).Inc()

	for _, s := range b.reg.SnapshotOthers(excluding) {
		if err := s.out.writeFrame(frame); err != nil {
			BroadcastFailures.Inc()
			b.logger.Warn("broadcast write failed",
				"type", ev.Type(), "nick", s.Nickname(), "conn_id", s.ID(), "error", err)
		}
	}
}
