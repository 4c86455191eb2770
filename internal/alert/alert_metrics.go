package alert

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the alert subsystem.
type Metrics struct {
	CreatesTotal       *prometheus.CounterVec
	CreateErrorsTotal  *prometheus.CounterVec
	DedupHitsTotal     prometheus.Counter
	AcksTotal          prometheus.Counter
	DeactivatedAlerts  prometheus.Histogram
	FanoutFailures     *prometheus.CounterVec
	ActiveListDuration prometheus.Histogram
}

// NewMetrics registers and returns alert metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CreatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_alerts_created_total",
			Help: "Alerts created, by source and severity.",
		}, []string{"source", "severity"}),
		CreateErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_alert_create_errors_total",
			Help: "Failed alert creations, by reason.",
		}, []string{"reason"}),
		DedupHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_alert_dedup_hits_total",
			Help: "Creations suppressed because an active duplicate existed.",
		}),
		AcksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_alert_acknowledgements_total",
			Help: "Alerts acknowledged (first transition only).",
		}),
		DeactivatedAlerts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "beacon_alerts_deactivated_per_call",
			Help:    "Alerts cleared per bulk deactivation.",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 .. 10
		}),
		FanoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_alert_fanout_failures_total",
			Help: "Best-effort fanout failures, by sink.",
		}, []string{"sink"}),
		ActiveListDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "beacon_alert_active_list_duration_seconds",
			Help:    "Duration of active-alert listings.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		}),
	}

	reg.MustRegister(
		m.CreatesTotal,
		m.CreateErrorsTotal,
		m.DedupHitsTotal,
		m.AcksTotal,
		m.DeactivatedAlerts,
		m.FanoutFailures,
		m.ActiveListDuration,
	)

	return m
}
