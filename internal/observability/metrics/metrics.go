package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the conversation booking
// flow.
type BookingMetrics struct {
	turnsTotal      *prometheus.CounterVec
	actionsTotal    *prometheus.CounterVec
	conflictsTotal  prometheus.Counter
	bookingsCreated prometheus.Counter
	turnLatency     prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hanasalon",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total conversation turns processed",
		}, []string{"outcome"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hanasalon",
			Subsystem: "conversation",
			Name:      "actions_total",
			Help:      "Total executed actions by result code",
		}, []string{"result"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hanasalon",
			Subsystem: "booking",
			Name:      "conflicts_total",
			Help:      "Requested slots that conflicted and produced alternatives",
		}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hanasalon",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Bookings successfully created against the backend",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hanasalon",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.actionsTotal, m.conflictsTotal, m.bookingsCreated, m.turnLatency)
	return m
}

func (m *BookingMetrics) ObserveTurn(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveAction(result string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) ObserveBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}
