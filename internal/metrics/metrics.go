package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons.
const (
	DropReasonTargetOffline = "target_offline"
	DropReasonUnregistered  = "unregistered_sender"
	DropReasonBackpressure  = "backpressure"
	DropReasonClosed        = "closed"
	DropReasonInvalid       = "invalid_message"
)

// Metrics groups the relay's Prometheus collectors.
type Metrics struct {
	OnlineUsers prometheus.Gauge
	ActiveCalls prometheus.Gauge
	Calls       *prometheus.CounterVec
	Relayed     *prometheus.CounterVec
	Dropped     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yumee",
			Name:      "online_users",
			Help:      "Number of registered connections.",
		}),
		ActiveCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yumee",
			Name:      "calls",
			Help:      "Number of ringing or active calls.",
		}),
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yumee",
			Name:      "call_events_total",
			Help:      "Call lifecycle events by outcome.",
		}, []string{"outcome"}),
		Relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yumee",
			Name:      "relayed_total",
			Help:      "Signaling and chat messages delivered, by kind.",
		}, []string{"kind"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yumee",
			Name:      "dropped_total",
			Help:      "Messages dropped, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.OnlineUsers, m.ActiveCalls, m.Calls, m.Relayed, m.Dropped)
	return m
}

// The helpers below are no-ops on a nil *Metrics.

func (m *Metrics) CallEvent(outcome string) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Relay(kind string) {
	if m == nil {
		return
	}
	m.Relayed.WithLabelValues(kind).Inc()
}

func (m *Metrics) Drop(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

// Observe refreshes the gauges from current table sizes.
func (m *Metrics) Observe(users, calls int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(users))
	m.ActiveCalls.Set(float64(calls))
}
