package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the discovery collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Discoveries      *prometheus.CounterVec
	StageFailures    *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	ExtractionMethod *prometheus.CounterVec
	InFlight         prometheus.Gauge
}

// New creates the collectors and registers them on reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Discoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobscout_discoveries_total",
				Help: "Company discoveries by terminal status",
			},
			[]string{"status"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobscout_stage_failures_total",
				Help: "Pipeline stage failures by stage and error kind",
			},
			[]string{"stage", "kind"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobscout_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		ExtractionMethod: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobscout_extraction_method_total",
				Help: "Winning extraction strategy per extraction",
			},
			[]string{"method"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobscout_companies_in_flight",
			Help: "Company pipelines currently running",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Discoveries, m.StageFailures, m.StageDuration, m.ExtractionMethod, m.InFlight)
	}
	return m
}

func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) StageFailed(stage, kind string) {
	if m == nil {
		return
	}
	m.StageFailures.WithLabelValues(stage, kind).Inc()
}

func (m *Metrics) Discovery(status string) {
	if m == nil {
		return
	}
	m.Discoveries.WithLabelValues(status).Inc()
}

func (m *Metrics) Extracted(method string) {
	if m == nil {
		return
	}
	m.ExtractionMethod.WithLabelValues(method).Inc()
}

func (m *Metrics) Enter() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) Exit() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}
