package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotifierMetrics records delivery outcomes for the outbox notifier.
type NotifierMetrics struct {
	duration  *prometheus.HistogramVec
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	terminal  *prometheus.CounterVec
	pending   prometheus.Gauge
}

// NewNotifierMetrics registers the notifier metrics on the provided registerer.
func NewNotifierMetrics(reg prometheus.Registerer) *NotifierMetrics {
	if reg == nil {
		return &NotifierMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of outbox event publishes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published",
		Help: "Outbox events delivered to the bus.",
	}, []string{"kind"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures",
		Help: "Transient outbox publish failures.",
	}, []string{"kind"})
	terminal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_terminal",
		Help: "Outbox events parked after exhausting delivery attempts.",
	}, []string{"kind"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_events_pending",
		Help: "Outbox events awaiting delivery.",
	})
	reg.MustRegister(duration, published, failed, terminal, pending)
	return &NotifierMetrics{
		duration:  duration,
		published: published,
		failed:    failed,
		terminal:  terminal,
		pending:   pending,
	}
}

// ObservePublishDuration records how long one publish took.
func (n *NotifierMetrics) ObservePublishDuration(kind string, duration time.Duration) {
	if n == nil || n.duration == nil {
		return
	}
	n.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncPublished increments the delivered counter for the entity kind.
func (n *NotifierMetrics) IncPublished(kind string) {
	if n == nil || n.published == nil {
		return
	}
	n.published.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailed increments the transient failure counter for the entity kind.
func (n *NotifierMetrics) IncFailed(kind string) {
	if n == nil || n.failed == nil {
		return
	}
	n.failed.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncTerminal increments the terminal failure counter for the entity kind.
func (n *NotifierMetrics) IncTerminal(kind string) {
	if n == nil || n.terminal == nil {
		return
	}
	n.terminal.WithLabelValues(normalizeLabel(kind)).Inc()
}

// SetPending reports the current backlog size.
func (n *NotifierMetrics) SetPending(count int64) {
	if n == nil || n.pending == nil {
		return
	}
	n.pending.Set(float64(count))
}

func normalizeLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}
