package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the attendance flow. Services hold
// a possibly-nil *Metrics so unit tests can skip registration.
type Metrics struct {
	ClockIns             prometheus.Counter
	ClockOuts            prometheus.Counter
	Incidents            prometheus.Counter
	VerificationFailures prometheus.Counter
	ForcedAccepts        prometheus.Counter
	VerificationSeconds  prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ClockIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_clock_ins_total",
			Help: "Total number of completed clock-in events",
		}),
		ClockOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_clock_outs_total",
			Help: "Total number of completed clock-out events",
		}),
		Incidents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_incidents_total",
			Help: "Total number of attendance events flagged with an incident",
		}),
		VerificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_verification_failures_total",
			Help: "Total number of verification verdicts with verified=false",
		}),
		ForcedAccepts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_forced_accepts_total",
			Help: "Total number of failing verdicts persisted via forced accept",
		}),
		VerificationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeclock_verification_duration_seconds",
			Help:    "Latency of vision service verification calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) IncClockIn() {
	if m != nil {
		m.ClockIns.Inc()
	}
}

func (m *Metrics) IncClockOut() {
	if m != nil {
		m.ClockOuts.Inc()
	}
}

func (m *Metrics) IncIncident() {
	if m != nil {
		m.Incidents.Inc()
	}
}

func (m *Metrics) IncVerificationFailure() {
	if m != nil {
		m.VerificationFailures.Inc()
	}
}

func (m *Metrics) IncForcedAccept() {
	if m != nil {
		m.ForcedAccepts.Inc()
	}
}

func (m *Metrics) ObserveVerification(seconds float64) {
	if m != nil {
		m.VerificationSeconds.Observe(seconds)
	}
}
