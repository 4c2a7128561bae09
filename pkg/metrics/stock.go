package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records admission outcomes for the allocation ledger and
// optimistic-concurrency conflicts on lot writes.
type StockMetrics struct {
	allocations *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	conflicts   prometheus.Counter
}

// NewStockMetrics registers the stock metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_allocations_total",
		Help: "Committed stock allocations by admission mode.",
	}, []string{"mode"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_allocation_rejections_total",
		Help: "Rejected stock allocations by reason.",
	}, []string{"reason"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_lot_version_conflicts_total",
		Help: "Lot updates rejected by the optimistic concurrency token.",
	})
	reg.MustRegister(allocations, rejections, conflicts)
	return &StockMetrics{
		allocations: allocations,
		rejections:  rejections,
		conflicts:   conflicts,
	}
}

// IncAllocated increments the committed-allocation counter for the mode.
func (m *StockMetrics) IncAllocated(mode string) {
	if m == nil || m.allocations == nil {
		return
	}
	m.allocations.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncRejected increments the rejection counter for the reason.
func (m *StockMetrics) IncRejected(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncVersionConflict increments the optimistic-concurrency conflict counter.
func (m *StockMetrics) IncVersionConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
