package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "hostbeat"

// Prometheus implements Collector backed by Prometheus.
type Prometheus struct {
	notifications *prometheus.CounterVec
	changes       *prometheus.CounterVec
	batches       *prometheus.CounterVec
	reaped        prometheus.Counter
	registrations *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// Compile-time assertion that Prometheus implements Collector.
var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates a collector registered on its own registry.
// The namespace defaults to "hostbeat" when empty.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = defaultNamespace
	}

	reg := prometheus.NewRegistry()

	p := &Prometheus{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "sends_total",
			Help:      "Total notification send attempts by sender and result.",
		}, []string{"sender", "result"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "changefeed",
			Name:      "records_total",
			Help:      "Total change-feed records processed by kind.",
		}, []string{"kind"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "changefeed",
			Name:      "batches_total",
			Help:      "Total change-feed batches processed by result.",
		}, []string{"result"}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "deleted_total",
			Help:      "Total expired heartbeats deleted by the reaper.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "requests_total",
			Help:      "Total heartbeat registrations by result.",
		}, []string{"result"}),
		gatherer: reg,
	}

	reg.MustRegister(p.notifications, p.changes, p.batches, p.reaped, p.registrations)

	return p
}

// Handler serves the collected metrics in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func (p *Prometheus) RecordNotification(sender string, success bool) {
	p.notifications.WithLabelValues(sender, result(success)).Inc()
}

func (p *Prometheus) RecordChanges(kind string, count int) {
	if count <= 0 {
		return
	}
	p.changes.WithLabelValues(kind).Add(float64(count))
}

func (p *Prometheus) RecordBatch(success bool) {
	p.batches.WithLabelValues(result(success)).Inc()
}

func (p *Prometheus) RecordReaped(count int) {
	if count <= 0 {
		return
	}
	p.reaped.Add(float64(count))
}

func (p *Prometheus) RecordRegistration(success bool) {
	p.registrations.WithLabelValues(result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
