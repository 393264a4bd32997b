// Package metrics records pricing activity on a Prometheus registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics counts quotes, bulk operations and blocked commits.
type PricingMetrics struct {
	quotes        *prometheus.CounterVec
	bulkOps       *prometheus.CounterVec
	modified      prometheus.Counter
	commitBlocked prometheus.Counter
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
// A nil registerer yields a recorder whose methods do nothing.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_quotes_total",
		Help: "Quotes computed, by price basis.",
	}, []string{"basis"})
	bulkOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_bulk_operations_total",
		Help: "Bulk operators applied to a working set, by kind.",
	}, []string{"kind"})
	modified := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_records_modified_total",
		Help: "Records touched by bulk operators or anchor edits.",
	})
	commitBlocked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_commits_blocked_total",
		Help: "Commits refused because a price fell under the margin floor.",
	})
	reg.MustRegister(quotes, bulkOps, modified, commitBlocked)
	return &PricingMetrics{
		quotes:        quotes,
		bulkOps:       bulkOps,
		modified:      modified,
		commitBlocked: commitBlocked,
	}
}

func (m *PricingMetrics) IncQuote(basis string) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(basis)).Inc()
}

func (m *PricingMetrics) IncBulk(kind string, modified int) {
	if m == nil || m.bulkOps == nil {
		return
	}
	m.bulkOps.WithLabelValues(normalizeLabel(kind)).Inc()
	m.modified.Add(float64(modified))
}

func (m *PricingMetrics) IncCommitBlocked() {
	if m == nil || m.commitBlocked == nil {
		return
	}
	m.commitBlocked.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
