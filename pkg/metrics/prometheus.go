package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector carries the engine's Prometheus metrics on its own registry so
// tests can create collectors freely without duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	ordersCreated    prometheus.Counter
	ordersCancelled  prometheus.Counter
	tradesStarted    prometheus.Counter
	tradesCompleted  prometheus.Counter
	disputesOpened   prometheus.Counter
	disputesResolved prometheus.Counter
	releasedVolume   prometheus.Counter
	feeVolume        prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		ordersCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_orders_created_total",
			Help: "Total number of sell listings created",
		}),
		ordersCancelled: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_orders_cancelled_total",
			Help: "Total number of sell listings cancelled",
		}),
		tradesStarted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_trades_started_total",
			Help: "Total number of trades initiated",
		}),
		tradesCompleted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_trades_completed_total",
			Help: "Total number of trades completed (release or dispute outcome)",
		}),
		disputesOpened: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_disputes_opened_total",
			Help: "Total number of disputes opened",
		}),
		disputesResolved: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_disputes_resolved_total",
			Help: "Total number of disputes resolved by an admin",
		}),
		releasedVolume: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_released_volume_total",
			Help: "Total escrow volume released, in minor units",
		}),
		feeVolume: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "escrow_fee_volume_total",
			Help: "Total fees charged on releases, in minor units",
		}),
	}
}

func (c *Collector) OrderCreated()   { c.ordersCreated.Inc() }
func (c *Collector) OrderCancelled() { c.ordersCancelled.Inc() }
func (c *Collector) TradeStarted()   { c.tradesStarted.Inc() }
func (c *Collector) DisputeOpened()  { c.disputesOpened.Inc() }
func (c *Collector) DisputeResolved() {
	c.disputesResolved.Inc()
	c.tradesCompleted.Inc()
}

func (c *Collector) TradeCompleted(amount, fee int64) {
	c.tradesCompleted.Inc()
	c.releasedVolume.Add(float64(amount))
	c.feeVolume.Add(float64(fee))
}

// Handler serves this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
