package health

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus gauges exported per source, grounded on
// moolen-spectre/internal/integration/victorialogs/metrics.go's
// registerer-scoped gauge/counter construction.
type Metrics struct {
	Score            *prometheus.GaugeVec
	State            *prometheus.GaugeVec // 1 for the source's current state, labeled by state
	SuccessRate      *prometheus.GaugeVec
	SuppressionRatio *prometheus.GaugeVec
}

// NewMetrics registers the health gauges against reg. Each gauge is
// labeled by source_id; State additionally carries a state label so
// Grafana/alerting can filter on a specific band without a join.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hardstop_source_health_score",
		Help: "Source health score in [0,100].",
	}, []string{"source_id"})

	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hardstop_source_health_state",
		Help: "1 for the source's current budget state, 0 otherwise.",
	}, []string{"source_id", "state"})

	successRate := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hardstop_source_success_rate",
		Help: "Fraction of recent runs that succeeded.",
	}, []string{"source_id"})

	suppressionRatio := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hardstop_source_suppression_ratio",
		Help: "Fraction of recently processed items suppressed.",
	}, []string{"source_id"})

	reg.MustRegister(score, state, successRate, suppressionRatio)

	return &Metrics{Score: score, State: state, SuccessRate: successRate, SuppressionRatio: suppressionRatio}
}

// Observe exports one source's Report, resetting the prior state labels
// for that source first so stale bands don't linger at value 1.
func (m *Metrics) Observe(r Report) {
	m.Score.WithLabelValues(r.SourceID).Set(float64(r.Score))
	m.SuccessRate.WithLabelValues(r.SourceID).Set(r.SuccessRate)
	m.SuppressionRatio.WithLabelValues(r.SourceID).Set(r.SuppressionRatio)

	for _, s := range []BudgetState{StateHealthy, StateWatch, StateBlocked} {
		v := 0.0
		if s == r.State {
			v = 1.0
		}
		m.State.WithLabelValues(r.SourceID, string(s)).Set(v)
	}
}
