package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently logged-in clients",
	})

	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_frames_total",
		Help: "Total accepted inbound frames by type",
	}, []string{"type"})

	BroadcastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_broadcasts_total",
		Help: "Total broadcast events fanned out by type",
	}, []string{"type"})

	BroadcastFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_failures_total",
		Help: "Total broadcast writes that failed for a single recipient",
	})

	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_login_attempts_total",
		Help: "Total login attempts by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(FramesTotal)
	prometheus.MustRegister(BroadcastsTotal)
	prometheus.MustRegister(BroadcastFailures)
	prometheus.MustRegister(LoginAttempts)
}
