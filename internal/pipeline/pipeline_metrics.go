package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the escalation pipeline.
type Metrics struct {
	CyclesTotal       *prometheus.CounterVec
	CycleDuration     *prometheus.HistogramVec
	EventsTotal       prometheus.Counter
	EventsSkipped     prometheus.Counter
	BatchSize         prometheus.Histogram
	SeenSetSize       prometheus.Gauge
	DeliveriesTotal   *prometheus.CounterVec
	RemediationsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_cycles_total",
			Help: "Total poll cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beacon_cycle_duration_seconds",
			Help:    "Duration of poll cycles in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}, []string{"outcome"}),
		EventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_events_total",
			Help: "Total new events accepted into escalation batches.",
		}),
		EventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_events_skipped_total",
			Help: "Total events skipped as already-seen duplicates.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "beacon_batch_size",
			Help:    "New events per non-empty escalation batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. 512
		}),
		SeenSetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_seen_set_size",
			Help: "IDs currently held by the dedup cache.",
		}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_deliveries_total",
			Help: "Downstream action attempts by action and status.",
		}, []string{"action", "status"}),
		RemediationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_remediations_total",
			Help: "Remediation jobs by terminal status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.EventsTotal,
		m.EventsSkipped,
		m.BatchSize,
		m.SeenSetSize,
		m.DeliveriesTotal,
		m.RemediationsTotal,
	)

	return m
}

func (m *Metrics) observeDelivery(action string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DeliveriesTotal.WithLabelValues(action, status).Inc()
}
