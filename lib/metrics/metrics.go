// Package metrics exposes a small set of prometheus collectors for a
// running Host: roster size, PDU counts by type and direction, and
// malformed-PDU notifications. All of it is optional — a nil
// *Metrics is safe to call methods on and simply does nothing, so
// instrumentation never needs a guard at the call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors for one Host. Register it with a
// prometheus.Registerer to export it.
type Metrics struct {
	RosterSize     prometheus.Gauge
	PDUsSent       *prometheus.CounterVec
	PDUsReceived   *prometheus.CounterVec
	MalformedTotal prometheus.Counter
}

// New builds a fresh, unregistered set of collectors labeled with the
// given chat ID so that multiple Hosts in one process don't collide.
func New(chatID string) *Metrics {
	constLabels := prometheus.Labels{"chat_id": chatID}
	return &Metrics{
		RosterSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "scedachat",
			Name:        "roster_size",
			Help:        "Number of peers currently known to this host.",
			ConstLabels: constLabels,
		}),
		PDUsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "scedachat",
			Name:        "pdus_sent_total",
			Help:        "PDUs sent, by type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		PDUsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "scedachat",
			Name:        "pdus_received_total",
			Help:        "PDUs received, by type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		MalformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "scedachat",
			Name:        "malformed_pdus_total",
			Help:        "Frames that failed to parse or decrypt.",
			ConstLabels: constLabels,
		}),
	}
}

// MustRegister registers every collector in m with reg. Panics on a
// duplicate registration, matching prometheus.Registerer's own
// MustRegister convention.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	if m == nil {
		return
	}
	reg.MustRegister(m.RosterSize, m.PDUsSent, m.PDUsReceived, m.MalformedTotal)
}

func (m *Metrics) SetRosterSize(n int) {
	if m == nil {
		return
	}
	m.RosterSize.Set(float64(n))
}

func (m *Metrics) CountSent(pduType string) {
	if m == nil {
		return
	}
	m.PDUsSent.WithLabelValues(pduType).Inc()
}

func (m *Metrics) CountReceived(pduType string) {
	if m == nil {
		return
	}
	m.PDUsReceived.WithLabelValues(pduType).Inc()
}

func (m *Metrics) CountMalformed() {
	if m == nil {
		return
	}
	m.MalformedTotal.Inc()
}
