package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private Prometheus registry and the ledger's collectors.
// All Observe/Inc helpers are safe on a nil *Registry.
type Registry struct {
	reg *prometheus.Registry

	OpsTotal          *prometheus.CounterVec
	OpDurationSec     *prometheus.HistogramVec
	UnitsSold         prometheus.Counter
	PartialFailures   prometheus.Counter
	ActivityPublished *prometheus.CounterVec
	PublishFailures   *prometheus.CounterVec
	ReportCache       *prometheus.CounterVec
	RateLimited       prometheus.Counter
	CatalogTitles     prometheus.Gauge
	InventoryUnits    prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	opsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qlsach_operations_total",
		Help: "Dispatched operations by name and outcome kind.",
	}, []string{"op", "outcome"})
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qlsach_operation_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	unitsSold := prometheus.NewCounter(prometheus.CounterOpts{Name: "qlsach_units_sold_total"})
	partial := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qlsach_purchase_partial_failures_total",
		Help: "Purchases whose stock decrement was applied but whose activity entry was not recorded.",
	})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "qlsach_activity_published_total"}, []string{"sink"})
	publishFailed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "qlsach_activity_publish_failures_total"}, []string{"sink"})
	reportCache := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "qlsach_report_cache_total"}, []string{"report", "result"})
	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{Name: "qlsach_rate_limited_total"})
	titles := prometheus.NewGauge(prometheus.GaugeOpts{Name: "qlsach_catalog_titles"})
	units := prometheus.NewGauge(prometheus.GaugeOpts{Name: "qlsach_inventory_units"})

	r.MustRegister(opsTotal, opDuration, unitsSold, partial, published, publishFailed, reportCache, rateLimited, titles, units)
	return &Registry{
		reg:               r,
		OpsTotal:          opsTotal,
		OpDurationSec:     opDuration,
		UnitsSold:         unitsSold,
		PartialFailures:   partial,
		ActivityPublished: published,
		PublishFailures:   publishFailed,
		ReportCache:       reportCache,
		RateLimited:       rateLimited,
		CatalogTitles:     titles,
		InventoryUnits:    units,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObserveOp(op, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.OpsTotal.WithLabelValues(op, outcome).Inc()
	r.OpDurationSec.WithLabelValues(op).Observe(d.Seconds())
}

func (r *Registry) ObserveSale(quantity int64) {
	if r == nil {
		return
	}
	r.UnitsSold.Add(float64(quantity))
}

func (r *Registry) IncPartialFailure() {
	if r == nil {
		return
	}
	r.PartialFailures.Inc()
}

func (r *Registry) ObservePublish(sink string, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.PublishFailures.WithLabelValues(sink).Inc()
		return
	}
	r.ActivityPublished.WithLabelValues(sink).Inc()
}

func (r *Registry) ObserveCache(report string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.ReportCache.WithLabelValues(report, result).Inc()
}

func (r *Registry) IncRateLimited() {
	if r == nil {
		return
	}
	r.RateLimited.Inc()
}

func (r *Registry) SetInventory(titles, units int64) {
	if r == nil {
		return
	}
	r.CatalogTitles.Set(float64(titles))
	r.InventoryUnits.Set(float64(units))
}
