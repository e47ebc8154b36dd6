package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CartRejectInsufficientStock = "insufficient_stock"
	CartRejectVariantNotFound   = "variant_not_found"
	CartRejectForbidden         = "forbidden"
)

// CartMetrics counts cart mutations and the reasons they were rejected.
type CartMetrics struct {
	added    prometheus.Counter
	merged   prometheus.Counter
	rejected *prometheus.CounterVec
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	added := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Cart lines inserted.",
	})
	merged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_merged_total",
		Help: "Adds merged into an existing cart line.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_rejections_total",
		Help: "Cart mutations rejected by reason.",
	}, []string{"reason"})
	reg.MustRegister(added, merged, rejected)
	return &CartMetrics{added: added, merged: merged, rejected: rejected}
}

func (c *CartMetrics) IncAdded() {
	if c == nil || c.added == nil {
		return
	}
	c.added.Inc()
}

func (c *CartMetrics) IncMerged() {
	if c == nil || c.merged == nil {
		return
	}
	c.merged.Inc()
}

func (c *CartMetrics) IncRejected(reason string) {
	if c == nil || c.rejected == nil {
		return
	}
	c.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
