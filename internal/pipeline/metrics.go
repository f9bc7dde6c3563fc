package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded per processed document.
const (
	outcomeOCRFailed   = "ocr_failed"
	outcomeParseFailed = "parse_failed"
	outcomeParsed      = "parsed"
)

// Metrics collects pipeline counters. All record methods are nil-safe so
// stages constructed without metrics keep working.
type Metrics struct {
	extractions *prometheus.CounterVec
	confidence  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Processed documents by final outcome.",
		}, []string{"outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "extraction_confidence",
			Help:    "Field-extraction confidence per parsed document.",
			Buckets: []float64{0, 0.25, 0.5, 0.75, 1},
		}),
	}
	reg.MustRegister(m.extractions, m.confidence)
	return m
}

func (m *Metrics) observeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeConfidence(v float64) {
	if m == nil {
		return
	}
	m.confidence.Observe(v)
}
