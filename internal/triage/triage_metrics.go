package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	VerdictsTotal  *prometheus.CounterVec
	EvalDuration   *prometheus.HistogramVec
	FallbacksTotal prometheus.Counter
	StoreFailures  prometheus.Counter
	ConsentTotal   *prometheus.CounterVec
	NotifyTotal    *prometheus.CounterVec
	TransfersTotal *prometheus.CounterVec
	WebhookEvents  *prometheus.CounterVec
	TTSTotal       *prometheus.CounterVec
	TTSDuration    prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VerdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matri_triage_verdicts_total",
			Help: "Total triage verdicts by risk tier.",
		}, []string{"tier"}),
		EvalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matri_triage_eval_duration_seconds",
			Help:    "Duration of triage evaluations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100us .. ~1.6s
		}, []string{"tier"}),
		FallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matri_triage_fallbacks_total",
			Help: "Total verdicts substituted by the YELLOW fallback policy.",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matri_triage_store_failures_total",
			Help: "Total persistence failures absorbed by the service.",
		}),
		ConsentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matri_consent_total",
			Help: "Total consent captures by outcome.",
		}, []string{"outcome"}),
		NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matri_notify_total",
			Help: "Total care-team notifications by outcome.",
		}, []string{"outcome"}),
		TransfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matri_call_transfers_total",
			Help: "Total live-call doctor transfers by outcome.",
		}, []string{"outcome"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matri_webhook_events_total",
			Help: "Total voice-platform webhook events by type.",
		}, []string{"type"}),
		TTSTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matri_tts_requests_total",
			Help: "Total speech synthesis requests by outcome.",
		}, []string{"outcome"}),
		TTSDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matri_tts_duration_seconds",
			Help:    "Duration of speech synthesis requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 0.1s .. ~12.8s
		}),
	}

	reg.MustRegister(
		m.VerdictsTotal,
		m.EvalDuration,
		m.FallbacksTotal,
		m.StoreFailures,
		m.ConsentTotal,
		m.NotifyTotal,
		m.TransfersTotal,
		m.WebhookEvents,
		m.TTSTotal,
		m.TTSDuration,
	)

	return m
}

// ObserveVerdict records one completed evaluation.
func (m *Metrics) ObserveVerdict(tier Tier, fallback bool, seconds float64) {
	m.VerdictsTotal.WithLabelValues(string(tier)).Inc()
	m.EvalDuration.WithLabelValues(string(tier)).Observe(seconds)
	if fallback {
		m.FallbacksTotal.Inc()
	}
}
